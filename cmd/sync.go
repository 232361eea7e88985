package cmd

import (
	"fmt"

	"github.com/grovetools/core/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/altsync/pkg/catalog"
	"github.com/grovetools/altsync/pkg/config"
	"github.com/grovetools/altsync/pkg/gh"
	"github.com/grovetools/altsync/pkg/logger"
	"github.com/grovetools/altsync/pkg/updater"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Record the latest stable release in the catalog",
		Long: `Fetch the newest release that is neither a draft nor a pre-release, and add
a version entry for it to the first app of the catalog unless that version is
already listed. featuredApps and the app's bundleIdentifier are always reset to
the configured bundle identifier.

The catalog is rewritten only when an entry was added.`,
		Example: `  altsync sync
  altsync sync --catalog apps.json --repo Aidoku/Aidoku --dry-run`,
		Args: cobra.NoArgs,
		RunE: runSync,
	}

	configFlag(cmd, "catalog", "catalog_path", "path of the AltStore source JSON file")
	configFlag(cmd, "repo", "repository", "GitHub repository (owner/name)")
	configFlag(cmd, "bundle-id", "bundle_id", "bundle identifier of the app")
	configFlag(cmd, "min-os", "min_os_version", "minOSVersion of the new version entry")
	configFlag(cmd, "api-url", "api_url", "GitHub API root")
	configBoolFlag(cmd, "match-bundle-id", "match_bundle_id", "update the app with the configured bundle identifier instead of the first app")
	configBoolFlag(cmd, "news", "news.enabled", "also add a news item for the release")
	cmd.Flags().Bool("dry-run", false, "show what would change without writing the catalog")

	return cmd
}

func newGitHubClient(cfg *config.Config) *gh.Client {
	return gh.NewClient(
		gh.WithBaseURL(cfg.APIURL),
		gh.WithTimeout(cfg.RequestTimeout()),
		gh.WithPerPage(cfg.PerPage),
		gh.WithUserAgent("altsync/"+version.GetInfo().Version),
	)
}

func updaterOptions(cfg *config.Config) updater.Options {
	return updater.Options{
		Repository:     cfg.Repository,
		BundleID:       cfg.BundleID,
		MinOSVersion:   cfg.MinOSVersion,
		AssetExtension: cfg.AssetExtension,
		Marker:         cfg.ReleaseMarker,
		MatchBundleID:  cfg.MatchBundleID,
		News: updater.NewsOptions{
			Enabled:   cfg.News.Enabled,
			Caption:   cfg.News.Caption,
			TintColor: cfg.News.TintColor,
			Notify:    cfg.News.Notify,
		},
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.New("sync")

	opts := updaterOptions(cfg)
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")

	log.WithFields(logrus.Fields{
		"repository": cfg.Repository,
		"catalog":    cfg.CatalogPath,
	}).Debug("Starting sync")

	u := updater.New(opts, newGitHubClient(cfg), catalog.NewFileStore(cfg.CatalogPath), log)
	result, err := u.Run(cmd.Context())
	if err != nil {
		return err
	}

	fields := logrus.Fields{"tag": result.Release.TagName, "version": result.Version}
	switch {
	case result.Written:
		log.WithFields(fields).Info("Catalog updated successfully")
	case result.Changed():
		log.WithFields(fields).Info("Catalog would be updated")
	default:
		log.WithFields(fields).Info("No need to update catalog")
	}

	if opts.DryRun && result.Record != nil {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render("New version entry"))
		printField(out, "Version", versionStyle.Render(result.Record.Version))
		printField(out, "Date", result.Record.Date)
		printField(out, "Download", result.Record.DownloadURL)
		printField(out, "Size", fmt.Sprintf("%d", result.Record.Size))
		printField(out, "Min OS", result.Record.MinOSVersion)
		fmt.Fprintln(out, faintStyle.Render(result.Record.LocalizedDescription))
	}
	return nil
}
