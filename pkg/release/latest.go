package release

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/grovetools/altsync/pkg/gh"
)

var (
	// ErrEmptyResult is wrapped by every "no usable release" failure
	ErrEmptyResult = errors.New("no usable release")

	ErrNoReleases      = fmt.Errorf("%w: release list is empty", ErrEmptyResult)
	ErrNoStableRelease = fmt.Errorf("%w: every release is a draft or pre-release", ErrEmptyResult)
)

// Lister returns the release list of a repository
type Lister interface {
	ListReleases(ctx context.Context, repo string) ([]gh.Release, error)
}

// Latest picks the most recently published release that is neither a draft
// nor a pre-release. Releases with equal timestamps keep their list order.
func Latest(releases []gh.Release) (gh.Release, error) {
	if len(releases) == 0 {
		return gh.Release{}, ErrNoReleases
	}

	sorted := slices.Clone(releases)
	slices.SortStableFunc(sorted, func(a, b gh.Release) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})

	for _, r := range sorted {
		if !r.Draft && !r.Prerelease {
			return r, nil
		}
	}
	return gh.Release{}, ErrNoStableRelease
}

// FetchLatest lists the releases of repo and returns the newest stable one
func FetchLatest(ctx context.Context, l Lister, repo string) (gh.Release, error) {
	releases, err := l.ListReleases(ctx, repo)
	if err != nil {
		return gh.Release{}, fmt.Errorf("failed to fetch releases for %s: %w", repo, err)
	}

	latest, err := Latest(releases)
	if err != nil {
		return gh.Release{}, fmt.Errorf("%s: %w", repo, err)
	}
	return latest, nil
}
