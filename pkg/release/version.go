package release

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var ErrVersionParse = errors.New("no numeric version in tag")

// Any Unicode decimal digit counts, not only ASCII.
var numericVersionRegex = regexp.MustCompile(`\p{Nd}+\.\p{Nd}+(\.\p{Nd}+)?`)

// VersionParseError reports a tag without a MAJOR.MINOR[.PATCH] component
type VersionParseError struct {
	Tag string
}

func (e *VersionParseError) Error() string {
	return fmt.Sprintf("%v: %q", ErrVersionParse, e.Tag)
}

func (e *VersionParseError) Is(target error) bool { return target == ErrVersionParse }

// FullVersion strips every leading "v" from a tag.
func FullVersion(tag string) string {
	return strings.TrimLeft(tag, "v")
}

// ParseVersion extracts the catalog version from a release tag:
// "v1.2.3" -> "1.2.3", "v2.0" -> "2.0", "v1.4.0-beta.2" -> "1.4.0".
func ParseVersion(tag string) (string, error) {
	v := numericVersionRegex.FindString(FullVersion(tag))
	if v == "" {
		return "", &VersionParseError{Tag: tag}
	}
	return v, nil
}

// CompareVersions orders two catalog versions semantically. ok is false when
// either side is not a valid version.
func CompareVersions(a, b string) (cmp int, ok bool) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return 0, false
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return 0, false
	}
	return va.Compare(vb), true
}
