package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceJSON = `{
  "name": "Aidoku",
  "identifier": "app.aidoku.Aidoku.source",
  "apps": [
    {
      "name": "Aidoku",
      "bundleIdentifier": "xyz.skitty.Aidoku",
      "developerName": "Skitty",
      "versions": [
        {
          "version": "0.6.1",
          "date": "2023-12-01",
          "localizedDescription": "old",
          "downloadURL": "https://x/old.ipa",
          "size": 10,
          "minOSVersion": "15.0",
          "buildVersion": "42"
        }
      ],
      "tintColor": "ff375f"
    },
    {"name": "Other", "bundleIdentifier": "com.example.other"}
  ],
  "news": []
}`

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"not json", `{"apps": [`, ErrMalformed},
		{"empty input", ``, ErrMalformed},
		{"array top level", `[{"apps": []}]`, ErrSchema},
		{"missing apps", `{"name": "x"}`, ErrSchema},
		{"apps not a list", `{"apps": {"a": 1}}`, ErrSchema},
		{"apps null", `{"apps": null}`, ErrSchema},
		{"apps empty", `{"apps": []}`, ErrSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDocumentApps(t *testing.T) {
	doc, err := Parse([]byte(sourceJSON))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.AppCount())

	app, err := doc.App(0)
	require.NoError(t, err)
	assert.Equal(t, "xyz.skitty.Aidoku", app.BundleIdentifier())

	same, err := doc.App(0)
	require.NoError(t, err)
	assert.Same(t, app, same)

	other, idx, err := doc.FindApp("com.example.other")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "com.example.other", other.BundleIdentifier())

	_, _, err = doc.FindApp("missing")
	assert.ErrorIs(t, err, ErrSchema)

	_, err = doc.App(5)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestAppNotAnObject(t *testing.T) {
	doc, err := Parse([]byte(`{"apps": ["oops"]}`))
	require.NoError(t, err)
	_, err = doc.App(0)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestVersions(t *testing.T) {
	doc, err := Parse([]byte(sourceJSON))
	require.NoError(t, err)
	app, err := doc.App(0)
	require.NoError(t, err)

	versions, err := app.Versions()
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "0.6.1", versions[0].Version)
	assert.Equal(t, int64(10), versions[0].Size)

	ok, err := app.HasVersion("0.6.1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = app.HasVersion("0.6.2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, app.PrependVersion(Version{Version: "0.6.2", Date: "2024-01-01", MinOSVersion: "15.0"}))
	versions, err = app.Versions()
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "0.6.2", versions[0].Version)
	assert.Equal(t, "0.6.1", versions[1].Version)
}

func TestEnsureVersions(t *testing.T) {
	doc, err := Parse([]byte(`{"apps": [{"name": "Aidoku"}]}`))
	require.NoError(t, err)
	app, err := doc.App(0)
	require.NoError(t, err)

	versions, err := app.Versions()
	require.NoError(t, err)
	assert.Empty(t, versions)

	require.NoError(t, app.EnsureVersions())
	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"apps\": [\n    {\n      \"name\": \"Aidoku\",\n      \"versions\": []\n    }\n  ]\n}\n", string(out))
}

func TestMarshalPreservesOrderAndUnknownKeys(t *testing.T) {
	doc, err := Parse([]byte(sourceJSON))
	require.NoError(t, err)

	app, err := doc.App(0)
	require.NoError(t, err)
	require.NoError(t, app.SetBundleIdentifier("app.aidoku.Aidoku"))
	require.NoError(t, doc.SetFeaturedApps([]string{"app.aidoku.Aidoku"}))

	out, err := doc.Marshal()
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(out, &generic))
	assert.Equal(t, "app.aidoku.Aidoku.source", generic["identifier"])
	assert.Equal(t, []any{"app.aidoku.Aidoku"}, generic["featuredApps"])

	apps := generic["apps"].([]any)
	first := apps[0].(map[string]any)
	assert.Equal(t, "app.aidoku.Aidoku", first["bundleIdentifier"])
	assert.Equal(t, "ff375f", first["tintColor"])
	version := first["versions"].([]any)[0].(map[string]any)
	assert.Equal(t, "42", version["buildVersion"])

	s := string(out)
	assert.Less(t, strings.Index(s, `"name": "Aidoku"`), strings.Index(s, `"identifier"`))
	assert.Less(t, strings.Index(s, `"identifier"`), strings.Index(s, `"apps"`))
	assert.Less(t, strings.Index(s, `"apps"`), strings.Index(s, `"news"`))
	assert.Less(t, strings.Index(s, `"news"`), strings.Index(s, `"featuredApps"`))
	assert.Less(t, strings.Index(s, `"developerName"`), strings.Index(s, `"versions"`))
}

func TestMarshalIsStable(t *testing.T) {
	doc, err := Parse([]byte(sourceJSON))
	require.NoError(t, err)
	first, err := doc.Marshal()
	require.NoError(t, err)

	again, err := Parse(first)
	require.NoError(t, err)
	second, err := again.Marshal()
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestNews(t *testing.T) {
	doc, err := Parse([]byte(`{"apps": [{}]}`))
	require.NoError(t, err)

	ok, err := doc.HasNews("release-1.0.0")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, doc.PrependNews(NewsItem{Identifier: "release-1.0.0", Title: "v1.0.0", Notify: true}))
	ok, err = doc.HasNews("release-1.0.0")
	require.NoError(t, err)
	assert.True(t, ok)

	bad, err := Parse([]byte(`{"apps": [{}], "news": "nope"}`))
	require.NoError(t, err)
	_, err = bad.HasNews("x")
	assert.ErrorIs(t, err, ErrSchema)
}

func TestFeaturedApps(t *testing.T) {
	doc, err := Parse([]byte(`{"apps": [{}], "featuredApps": ["a", "b"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, doc.FeaturedApps())

	require.NoError(t, doc.SetFeaturedApps([]string{"c"}))
	assert.Equal(t, []string{"c"}, doc.FeaturedApps())
}

func TestMarshalKeepsHTMLCharacters(t *testing.T) {
	src := `{"name": "Aidoku <b>beta</b> & co", "apps": [{"bundleIdentifier": "a", "subtitle": "read <manga>"}]}`
	doc, err := Parse([]byte(src))
	require.NoError(t, err)

	app, err := doc.App(0)
	require.NoError(t, err)
	require.NoError(t, app.PrependVersion(Version{Version: "1.0", LocalizedDescription: "fixes & <tweaks>"}))

	out, err := doc.Marshal()
	require.NoError(t, err)

	got := string(out)
	assert.Contains(t, got, `"name": "Aidoku <b>beta</b> & co"`)
	assert.Contains(t, got, `"subtitle": "read <manga>"`)
	assert.Contains(t, got, `"localizedDescription": "fixes & <tweaks>"`)
	assert.NotContains(t, got, `\u003c`)
	assert.NotContains(t, got, `\u0026`)
}
