package updater

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/altsync/pkg/catalog"
	"github.com/grovetools/altsync/pkg/gh"
	"github.com/grovetools/altsync/pkg/notes"
	"github.com/grovetools/altsync/pkg/release"
)

type fakeLister struct {
	releases []gh.Release
	err      error
	calls    int
}

func (f *fakeLister) ListReleases(ctx context.Context, repo string) ([]gh.Release, error) {
	f.calls++
	return f.releases, f.err
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testOptions() Options {
	return Options{
		Repository:     "Aidoku/Aidoku",
		BundleID:       "app.aidoku.Aidoku",
		MinOSVersion:   "15.0",
		AssetExtension: ".ipa",
		Marker:         notes.DefaultMarker,
	}
}

func v100Release() gh.Release {
	return gh.Release{
		TagName:     "v1.0.0",
		PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Body:        "Aidoku Release Information\n\n- fixed bugs",
		Assets: []gh.Asset{
			{Name: "Aidoku.ipa", Size: 1000, BrowserDownloadURL: "https://x/y.ipa"},
		},
	}
}

const emptyCatalog = `{"apps": [{"name": "Aidoku", "versions": []}]}`

func decodeVersions(t *testing.T, data []byte) []catalog.Version {
	t.Helper()
	var doc struct {
		Apps []struct {
			Versions []catalog.Version `json:"versions"`
		} `json:"apps"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.NotEmpty(t, doc.Apps)
	return doc.Apps[0].Versions
}

func TestRunEndToEnd(t *testing.T) {
	store := &catalog.MemStore{Data: []byte(emptyCatalog)}
	lister := &fakeLister{releases: []gh.Release{v100Release()}}

	result, err := New(testOptions(), lister, store, testLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.VersionAdded)
	assert.True(t, result.Written)
	assert.Equal(t, "1.0.0", result.Version)
	assert.Equal(t, 1, store.Writes)

	versions := decodeVersions(t, store.Data)
	require.Len(t, versions, 1)
	assert.Equal(t, catalog.Version{
		Version:              "1.0.0",
		Date:                 "2024-01-01",
		LocalizedDescription: "â€¢ fixed bugs",
		DownloadURL:          "https://x/y.ipa",
		Size:                 1000,
		MinOSVersion:         "15.0",
	}, versions[0])

	var generic map[string]any
	require.NoError(t, json.Unmarshal(store.Data, &generic))
	assert.Equal(t, []any{"app.aidoku.Aidoku"}, generic["featuredApps"])
	app := generic["apps"].([]any)[0].(map[string]any)
	assert.Equal(t, "app.aidoku.Aidoku", app["bundleIdentifier"])
}

func TestRunIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.json")
	require.NoError(t, os.WriteFile(path, []byte(emptyCatalog), 0644))

	lister := &fakeLister{releases: []gh.Release{v100Release()}}
	u := New(testOptions(), lister, catalog.NewFileStore(path), testLogger())

	first, err := u.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Written)
	afterFirst, err := os.ReadFile(path)
	require.NoError(t, err)

	second, err := u.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, second.VersionAdded)
	assert.False(t, second.Written)

	afterSecond, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(afterFirst), string(afterSecond))
}

func TestRunPrependsNewVersion(t *testing.T) {
	existing := `{"apps": [{"bundleIdentifier": "app.aidoku.Aidoku", "versions": [
		{"version": "0.9", "date": "2023-06-01", "localizedDescription": "", "downloadURL": "https://x/old.ipa", "size": 1, "minOSVersion": "15.0"}
	]}]}`
	store := &catalog.MemStore{Data: []byte(existing)}
	lister := &fakeLister{releases: []gh.Release{v100Release()}}

	_, err := New(testOptions(), lister, store, testLogger()).Run(context.Background())
	require.NoError(t, err)

	versions := decodeVersions(t, store.Data)
	require.Len(t, versions, 2)
	assert.Equal(t, "1.0.0", versions[0].Version)
	assert.Equal(t, "0.9", versions[1].Version)
}

func TestRunCreatesMissingVersionsList(t *testing.T) {
	store := &catalog.MemStore{Data: []byte(`{"apps": [{"name": "Aidoku"}]}`)}
	lister := &fakeLister{releases: []gh.Release{v100Release()}}

	result, err := New(testOptions(), lister, store, testLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.Len(t, decodeVersions(t, store.Data), 1)
}

func TestRunExistingVersionLeavesStoreUntouched(t *testing.T) {
	existing := `{"apps": [{"bundleIdentifier": "old.id", "versions": [{"version": "1.0.0"}]}], "featuredApps": []}`
	store := &catalog.MemStore{Data: []byte(existing)}
	lister := &fakeLister{releases: []gh.Release{v100Release()}}

	result, err := New(testOptions(), lister, store, testLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Changed())
	assert.Equal(t, 0, store.Writes)
	assert.Equal(t, existing, string(store.Data))
}

func TestRunDryRun(t *testing.T) {
	store := &catalog.MemStore{Data: []byte(emptyCatalog)}
	opts := testOptions()
	opts.DryRun = true

	result, err := New(opts, &fakeLister{releases: []gh.Release{v100Release()}}, store, testLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.VersionAdded)
	assert.False(t, result.Written)
	require.NotNil(t, result.Record)
	assert.Equal(t, "2024-01-01", result.Record.Date)
	assert.Equal(t, 0, store.Writes)
}

func TestRunFailures(t *testing.T) {
	noIPA := v100Release()
	noIPA.Assets = []gh.Asset{{Name: "Aidoku.zip"}, {Name: "source.tar.gz"}}

	noAssets := v100Release()
	noAssets.Assets = nil

	badTag := v100Release()
	badTag.TagName = "nightly"

	tests := []struct {
		name     string
		lister   *fakeLister
		catalog  string
		writeErr error
		wantErr  error
	}{
		{
			name:    "network failure",
			lister:  &fakeLister{err: &gh.NetworkError{URL: "u", Status: 502}},
			catalog: emptyCatalog,
			wantErr: gh.ErrNetwork,
		},
		{
			name:    "no releases",
			lister:  &fakeLister{},
			catalog: emptyCatalog,
			wantErr: release.ErrEmptyResult,
		},
		{
			name:    "only pre-releases",
			lister:  &fakeLister{releases: []gh.Release{{TagName: "v2.0.0", Prerelease: true}}},
			catalog: emptyCatalog,
			wantErr: release.ErrEmptyResult,
		},
		{
			name:    "malformed catalog",
			lister:  &fakeLister{releases: []gh.Release{v100Release()}},
			catalog: `{"apps": [`,
			wantErr: catalog.ErrMalformed,
		},
		{
			name:    "no apps key",
			lister:  &fakeLister{releases: []gh.Release{v100Release()}},
			catalog: `{"featuredApps": []}`,
			wantErr: catalog.ErrSchema,
		},
		{
			name:    "empty apps",
			lister:  &fakeLister{releases: []gh.Release{v100Release()}},
			catalog: `{"apps": []}`,
			wantErr: catalog.ErrSchema,
		},
		{
			name:    "missing ipa asset",
			lister:  &fakeLister{releases: []gh.Release{noIPA}},
			catalog: emptyCatalog,
			wantErr: release.ErrAssetNotFound,
		},
		{
			name:    "no assets",
			lister:  &fakeLister{releases: []gh.Release{noAssets}},
			catalog: emptyCatalog,
			wantErr: release.ErrAssetNotFound,
		},
		{
			name:    "unparseable tag",
			lister:  &fakeLister{releases: []gh.Release{badTag}},
			catalog: emptyCatalog,
			wantErr: release.ErrVersionParse,
		},
		{
			name:     "write failure",
			lister:   &fakeLister{releases: []gh.Release{v100Release()}},
			catalog:  emptyCatalog,
			writeErr: errors.New("read-only file system"),
			wantErr:  catalog.ErrWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &catalog.MemStore{Data: []byte(tt.catalog), WriteErr: tt.writeErr}
			_, err := New(testOptions(), tt.lister, store, testLogger()).Run(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, store.Writes)
			assert.Equal(t, tt.catalog, string(store.Data))
		})
	}
}

func TestRunMissingIPALeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.json")
	require.NoError(t, os.WriteFile(path, []byte(emptyCatalog), 0644))

	r := v100Release()
	r.Assets = []gh.Asset{{Name: "Aidoku.dmg", Size: 5}}

	_, err := New(testOptions(), &fakeLister{releases: []gh.Release{r}}, catalog.NewFileStore(path), testLogger()).Run(context.Background())
	require.ErrorIs(t, err, release.ErrAssetNotFound)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, emptyCatalog, string(data))
}

func TestRunSelectsApp(t *testing.T) {
	multi := `{"apps": [
		{"bundleIdentifier": "com.example.other", "versions": []},
		{"bundleIdentifier": "app.aidoku.Aidoku", "versions": []}
	]}`

	t.Run("first app by default", func(t *testing.T) {
		store := &catalog.MemStore{Data: []byte(multi)}
		_, err := New(testOptions(), &fakeLister{releases: []gh.Release{v100Release()}}, store, testLogger()).Run(context.Background())
		require.NoError(t, err)
		assert.Len(t, decodeVersions(t, store.Data), 1)
	})

	t.Run("match by bundle identifier", func(t *testing.T) {
		store := &catalog.MemStore{Data: []byte(multi)}
		opts := testOptions()
		opts.MatchBundleID = true
		_, err := New(opts, &fakeLister{releases: []gh.Release{v100Release()}}, store, testLogger()).Run(context.Background())
		require.NoError(t, err)

		var doc struct {
			Apps []struct {
				Versions []catalog.Version `json:"versions"`
			} `json:"apps"`
		}
		require.NoError(t, json.Unmarshal(store.Data, &doc))
		assert.Empty(t, doc.Apps[0].Versions)
		assert.Len(t, doc.Apps[1].Versions, 1)
	})

	t.Run("no matching bundle identifier", func(t *testing.T) {
		store := &catalog.MemStore{Data: []byte(emptyCatalog)}
		opts := testOptions()
		opts.MatchBundleID = true
		_, err := New(opts, &fakeLister{releases: []gh.Release{v100Release()}}, store, testLogger()).Run(context.Background())
		assert.ErrorIs(t, err, catalog.ErrSchema)
	})
}

func TestRunNews(t *testing.T) {
	opts := testOptions()
	opts.News = NewsOptions{Enabled: true, Notify: true}
	store := &catalog.MemStore{Data: []byte(emptyCatalog)}
	lister := &fakeLister{releases: []gh.Release{v100Release()}}

	result, err := New(opts, lister, store, testLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.NewsAdded)

	var doc struct {
		News []catalog.NewsItem `json:"news"`
	}
	require.NoError(t, json.Unmarshal(store.Data, &doc))
	require.Len(t, doc.News, 1)
	assert.Equal(t, catalog.NewsItem{
		AppID:      "app.aidoku.Aidoku",
		Caption:    DefaultNewsCaption,
		Date:       "2024-01-01T00:00:00Z",
		Identifier: "release-1.0.0",
		Notify:     true,
		TintColor:  DefaultNewsTintColor,
		Title:      "v1.0.0",
		URL:        "https://github.com/Aidoku/Aidoku/releases/tag/v1.0.0",
	}, doc.News[0])

	second, err := New(opts, lister, store, testLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, second.Changed())
	assert.Equal(t, 1, store.Writes)
}

func TestNewsIdentifier(t *testing.T) {
	assert.Equal(t, "release-0.6.2", NewsIdentifier("v0.6.2"))
	assert.Equal(t, "release-2.0-beta", NewsIdentifier("v2.0-beta"))
}
