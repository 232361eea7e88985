package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/tend/pkg/command"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

const fixtureReleases = `[
  {"tag_name": "v0.7.0-beta", "published_at": "2024-04-01T09:00:00Z", "draft": false, "prerelease": true,
   "body": "beta", "assets": [{"name": "Aidoku.ipa", "size": 1, "browser_download_url": "https://example.com/beta.ipa"}]},
  {"tag_name": "v0.6.2", "published_at": "2024-03-01T10:00:00Z", "draft": false, "prerelease": false,
   "body": "Aidoku Release Information\n\n- fixed ` + "`reader`" + ` crash",
   "html_url": "https://github.com/Aidoku/Aidoku/releases/tag/v0.6.2",
   "assets": [{"name": "Aidoku.ipa", "size": 4096, "browser_download_url": "https://example.com/Aidoku.ipa"}]}
]`

const fixtureCatalog = `{
  "name": "Aidoku",
  "identifier": "app.aidoku.source",
  "apps": [
    {
      "name": "Aidoku",
      "bundleIdentifier": "app.aidoku.Aidoku",
      "versions": [
        {
          "version": "0.6.1",
          "date": "2024-01-10",
          "localizedDescription": "previous",
          "downloadURL": "https://example.com/old.ipa",
          "size": 2048,
          "minOSVersion": "15.0"
        }
      ]
    }
  ],
  "news": []
}
`

// setupSyncFixture starts a fake release API and writes a catalog fixture.
func setupSyncFixture() harness.Step {
	return harness.NewStep("Setup release API and catalog", func(ctx *harness.Context) error {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/repos/Aidoku/Aidoku/releases" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(fixtureReleases))
		}))
		ctx.Set("api_server", srv)

		workDir := ctx.NewDir("altsync-sync")
		if err := os.MkdirAll(workDir, 0755); err != nil {
			return fmt.Errorf("failed to create work dir: %w", err)
		}
		catalogPath := filepath.Join(workDir, "apps.json")
		if err := fs.WriteString(catalogPath, fixtureCatalog); err != nil {
			return err
		}

		ctx.Set("work_dir", workDir)
		ctx.Set("catalog_path", catalogPath)
		return nil
	})
}

func stopSyncFixture() harness.Step {
	return harness.NewStep("Stop release API", func(ctx *harness.Context) error {
		if srv, ok := ctx.Get("api_server").(*httptest.Server); ok {
			srv.Close()
		}
		return nil
	})
}

// runSync runs the binary under test against the fixture.
func runSync(ctx *harness.Context, extra ...string) (stdout, stderr string, err error) {
	srv := ctx.Get("api_server").(*httptest.Server)
	args := append([]string{"sync",
		"--catalog", ctx.Get("catalog_path").(string),
		"--api-url", srv.URL,
	}, extra...)

	result := command.New(ctx.GroveBinary, args...).Dir(ctx.Get("work_dir").(string)).Run()
	ctx.ShowCommandOutput("altsync "+strings.Join(args, " "), result.Stdout, result.Stderr)
	if result.Error != nil {
		return result.Stdout, result.Stderr, fmt.Errorf("altsync %s failed: %w\nStderr: %s", args[0], result.Error, result.Stderr)
	}
	return result.Stdout, result.Stderr, nil
}

// SyncScenario records a release and checks that a second run is a no-op.
func SyncScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "sync-records-latest-release",
		Description: "Adds the newest stable release to a catalog and leaves it alone on the next run",
		Tags:        []string{"sync", "catalog"},
		Steps: []harness.Step{
			setupSyncFixture(),
			harness.NewStep("Sync adds the stable release", func(ctx *harness.Context) error {
				_, stderr, err := runSync(ctx)
				if err != nil {
					return err
				}
				if !strings.Contains(stderr, "Catalog updated successfully") {
					return fmt.Errorf("expected update message, got: %s", stderr)
				}

				data, err := os.ReadFile(ctx.Get("catalog_path").(string))
				if err != nil {
					return err
				}
				var doc struct {
					FeaturedApps []string `json:"featuredApps"`
					Apps         []struct {
						Versions []struct {
							Version              string `json:"version"`
							Date                 string `json:"date"`
							LocalizedDescription string `json:"localizedDescription"`
							Size                 int64  `json:"size"`
						} `json:"versions"`
					} `json:"apps"`
				}
				if err := json.Unmarshal(data, &doc); err != nil {
					return fmt.Errorf("catalog is no longer valid JSON: %w", err)
				}

				versions := doc.Apps[0].Versions
				if len(versions) != 2 {
					return fmt.Errorf("expected 2 versions, got %d", len(versions))
				}
				head := versions[0]
				if head.Version != "0.6.2" || head.Date != "2024-03-01" || head.Size != 4096 {
					return fmt.Errorf("unexpected head version: %+v", head)
				}
				if head.LocalizedDescription != "â€¢ fixed \"reader\" crash" {
					return fmt.Errorf("unexpected description: %q", head.LocalizedDescription)
				}
				if versions[1].Version != "0.6.1" {
					return fmt.Errorf("previous version moved: %+v", versions[1])
				}
				if len(doc.FeaturedApps) != 1 || doc.FeaturedApps[0] != "app.aidoku.Aidoku" {
					return fmt.Errorf("unexpected featuredApps: %v", doc.FeaturedApps)
				}

				ctx.Set("synced_catalog", string(data))
				return nil
			}),
			harness.NewStep("Second sync changes nothing", func(ctx *harness.Context) error {
				_, stderr, err := runSync(ctx)
				if err != nil {
					return err
				}
				if !strings.Contains(stderr, "No need to update catalog") {
					return fmt.Errorf("expected no-op message, got: %s", stderr)
				}

				data, err := os.ReadFile(ctx.Get("catalog_path").(string))
				if err != nil {
					return err
				}
				if string(data) != ctx.Get("synced_catalog").(string) {
					return fmt.Errorf("catalog changed on an idempotent run")
				}
				return nil
			}),
			stopSyncFixture(),
		},
	}
}

// SyncDryRunScenario checks that --dry-run reports the record without writing.
func SyncDryRunScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "sync-dry-run",
		Description: "Reports the pending version without touching the catalog",
		Tags:        []string{"sync", "dry-run"},
		Steps: []harness.Step{
			setupSyncFixture(),
			harness.NewStep("Dry run leaves the catalog untouched", func(ctx *harness.Context) error {
				stdout, _, err := runSync(ctx, "--dry-run")
				if err != nil {
					return err
				}
				if !strings.Contains(stdout, "0.6.2") {
					return fmt.Errorf("dry run did not print the new record: %s", stdout)
				}

				data, err := os.ReadFile(ctx.Get("catalog_path").(string))
				if err != nil {
					return err
				}
				if string(data) != fixtureCatalog {
					return fmt.Errorf("dry run modified the catalog")
				}
				return nil
			}),
			stopSyncFixture(),
		},
	}
}
