// Package updater brings a catalog in line with the newest stable release of
// a project.
package updater

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/altsync/pkg/catalog"
	"github.com/grovetools/altsync/pkg/gh"
	"github.com/grovetools/altsync/pkg/notes"
	"github.com/grovetools/altsync/pkg/release"
)

const dateLayout = "2006-01-02"

// NewsOptions controls the optional news entry announcing a release
type NewsOptions struct {
	Enabled   bool
	Caption   string
	TintColor string
	Notify    bool
}

// Options configures a run
type Options struct {
	Repository     string
	BundleID       string
	MinOSVersion   string
	AssetExtension string
	Marker         string

	// MatchBundleID selects the app by bundle identifier instead of taking
	// the first entry of the apps list.
	MatchBundleID bool
	DryRun        bool

	News NewsOptions
}

// Result describes what a run found and changed
type Result struct {
	Release      gh.Release
	Asset        gh.Asset
	Version      string
	Record       *catalog.Version
	VersionAdded bool
	NewsAdded    bool
	Written      bool
}

// Changed reports whether the run produced a different document
func (r *Result) Changed() bool {
	return r.VersionAdded || r.NewsAdded
}

type Updater struct {
	opts   Options
	lister release.Lister
	store  catalog.Store
	logger *logrus.Entry
}

func New(opts Options, lister release.Lister, store catalog.Store, logger *logrus.Entry) *Updater {
	if opts.AssetExtension == "" {
		opts.AssetExtension = release.DefaultAssetExtension
	}
	return &Updater{
		opts:   opts,
		lister: lister,
		store:  store,
		logger: logger,
	}
}

// Run fetches the newest stable release and records it in the catalog. The
// catalog is written at most once, after every check has passed, and only
// when something was added.
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	latest, err := release.FetchLatest(ctx, u.lister, u.opts.Repository)
	if err != nil {
		return nil, err
	}
	u.logger.WithFields(logrus.Fields{
		"tag":       latest.TagName,
		"published": latest.PublishedAt.Format(dateLayout),
	}).Debug("Found latest release")

	data, err := u.store.Read()
	if err != nil {
		return nil, err
	}
	doc, err := catalog.Parse(data)
	if err != nil {
		return nil, err
	}

	app, err := u.selectApp(doc)
	if err != nil {
		return nil, err
	}
	if err := app.EnsureVersions(); err != nil {
		return nil, err
	}

	asset, err := release.SelectAsset(latest.Assets, u.opts.AssetExtension)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", latest.TagName, err)
	}

	if err := doc.SetFeaturedApps([]string{u.opts.BundleID}); err != nil {
		return nil, err
	}
	if err := app.SetBundleIdentifier(u.opts.BundleID); err != nil {
		return nil, err
	}

	version, err := release.ParseVersion(latest.TagName)
	if err != nil {
		return nil, err
	}

	result := &Result{Release: latest, Asset: asset, Version: version}

	exists, err := app.HasVersion(version)
	if err != nil {
		return nil, err
	}
	if !exists {
		record := u.buildRecord(latest, asset, version)
		u.warnIfOlder(app, version)
		if err := app.PrependVersion(record); err != nil {
			return nil, err
		}
		result.Record = &record
		result.VersionAdded = true
	}

	if u.opts.News.Enabled {
		added, err := u.addNews(doc, latest)
		if err != nil {
			return nil, err
		}
		result.NewsAdded = added
	}

	if !result.Changed() {
		return result, nil
	}
	if u.opts.DryRun {
		u.logger.Info("Dry run: catalog not written")
		return result, nil
	}

	out, err := doc.Marshal()
	if err != nil {
		return nil, err
	}
	if err := u.store.Write(out); err != nil {
		return nil, err
	}
	result.Written = true
	return result, nil
}

func (u *Updater) selectApp(doc *catalog.Document) (*catalog.App, error) {
	if u.opts.MatchBundleID {
		app, _, err := doc.FindApp(u.opts.BundleID)
		return app, err
	}
	if n := doc.AppCount(); n > 1 {
		u.logger.Warnf("Catalog lists %d apps; only the first one is updated", n)
	}
	return doc.App(0)
}

func (u *Updater) buildRecord(r gh.Release, asset gh.Asset, version string) catalog.Version {
	return catalog.Version{
		Version:              version,
		Date:                 r.PublishedAt.UTC().Format(dateLayout),
		LocalizedDescription: notes.Prepare(r.Body, u.opts.Marker),
		DownloadURL:          asset.BrowserDownloadURL,
		Size:                 asset.Size,
		MinOSVersion:         u.opts.MinOSVersion,
	}
}

// warnIfOlder flags a release that sorts below the current head version.
// The record is still inserted at the head.
func (u *Updater) warnIfOlder(app *catalog.App, version string) {
	versions, err := app.Versions()
	if err != nil || len(versions) == 0 {
		return
	}
	head := versions[0].Version
	if cmp, ok := release.CompareVersions(version, head); ok && cmp < 0 {
		u.logger.Warnf("Release version %s is older than the newest recorded version %s", version, head)
	}
}
