package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/grovetools/core/cli"
	"github.com/spf13/cobra"

	"github.com/grovetools/altsync/pkg/notes"
	"github.com/grovetools/altsync/pkg/release"
)

type latestInfo struct {
	Tag         string `json:"tag"`
	Version     string `json:"version,omitempty"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url,omitempty"`
	Asset       string `json:"asset,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Description string `json:"description"`
}

func newLatestCmd() *cobra.Command {
	var render bool

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the newest stable release",
		Long: `Show the release sync would record, without reading or writing the catalog.
Missing assets and unparseable tags are reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}

			latest, err := release.FetchLatest(cmd.Context(), newGitHubClient(cfg), cfg.Repository)
			if err != nil {
				return err
			}

			info := latestInfo{
				Tag:         latest.TagName,
				PublishedAt: latest.PublishedAt.UTC().Format("2006-01-02"),
				URL:         latest.HTMLURL,
				Description: notes.Prepare(latest.Body, cfg.ReleaseMarker),
			}
			var warnings []string
			if v, err := release.ParseVersion(latest.TagName); err == nil {
				info.Version = v
			} else {
				warnings = append(warnings, err.Error())
			}
			if asset, err := release.SelectAsset(latest.Assets, cfg.AssetExtension); err == nil {
				info.Asset = asset.Name
				info.DownloadURL = asset.BrowserDownloadURL
				info.Size = asset.Size
			} else {
				warnings = append(warnings, err.Error())
			}

			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintln(out, headerStyle.Render(cfg.Repository))
			printField(out, "Tag", versionStyle.Render(info.Tag))
			if info.Version != "" {
				printField(out, "Version", info.Version)
			}
			printField(out, "Published", info.PublishedAt)
			if info.Asset != "" {
				printField(out, "Asset", fmt.Sprintf("%s (%d bytes)", info.Asset, info.Size))
				printField(out, "Download", info.DownloadURL)
			}
			for _, w := range warnings {
				fmt.Fprintln(out, warningStyle.Render("⚠️  "+w))
			}
			fmt.Fprintln(out)

			if render {
				rendered, err := notes.Render(latest.Body, 80)
				if err != nil {
					return err
				}
				fmt.Fprint(out, rendered)
				return nil
			}
			fmt.Fprintln(out, info.Description)
			return nil
		},
	}

	configFlag(cmd, "repo", "repository", "GitHub repository (owner/name)")
	configFlag(cmd, "api-url", "api_url", "GitHub API root")
	cmd.Flags().BoolVar(&render, "render", false, "render the raw release notes as markdown")

	return cmd
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label), value)
}
