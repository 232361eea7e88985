package release

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grovetools/altsync/pkg/gh"
)

// DefaultAssetExtension is the installable package suffix for iOS builds
const DefaultAssetExtension = ".ipa"

var ErrAssetNotFound = errors.New("asset not found")

// SelectAsset returns the first asset whose name ends with ext
func SelectAsset(assets []gh.Asset, ext string) (gh.Asset, error) {
	if len(assets) == 0 {
		return gh.Asset{}, fmt.Errorf("%w: release has no assets other than the source archives", ErrAssetNotFound)
	}

	for _, a := range assets {
		if strings.HasSuffix(a.Name, ext) {
			return a, nil
		}
	}
	return gh.Asset{}, fmt.Errorf("%w: no %s file among %d assets", ErrAssetNotFound, ext, len(assets))
}
