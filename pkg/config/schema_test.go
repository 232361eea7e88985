package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaJSON(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)

	var schema struct {
		Title      string                     `json:"title"`
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &schema))

	assert.Equal(t, "altsync configuration", schema.Title)
	assert.Empty(t, schema.Required)
	for _, key := range []string{"repository", "bundle_id", "min_os_version", "catalog_path", "timeout", "news"} {
		assert.Contains(t, schema.Properties, key)
	}
	assert.Contains(t, string(schema.Properties["per_page"]), `"maximum": 100`)
}
