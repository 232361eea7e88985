package catalog

import (
	"encoding/json"
	"fmt"
)

// App is one entry of the apps list
type App struct {
	fields *object
}

// BundleIdentifier returns the app's bundle identifier or "" when unset
func (a *App) BundleIdentifier() string {
	var id string
	if raw, ok := a.fields.Get(keyBundleIdentifier); ok {
		_ = json.Unmarshal(raw, &id)
	}
	return id
}

func (a *App) SetBundleIdentifier(id string) error {
	return setValue(a.fields, keyBundleIdentifier, id)
}

// EnsureVersions adds an empty versions list if the app has none
func (a *App) EnsureVersions() error {
	if _, ok := a.fields.Get(keyVersions); ok {
		return nil
	}
	return setValue(a.fields, keyVersions, []Version{})
}

// Versions decodes the version list, newest first
func (a *App) Versions() ([]Version, error) {
	items, err := rawList(a.fields, keyVersions)
	if err != nil {
		return nil, err
	}
	versions := make([]Version, 0, len(items))
	for i, raw := range items {
		var v Version
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: version %d: %w", ErrSchema, i, err)
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// HasVersion reports whether version is already recorded
func (a *App) HasVersion(version string) (bool, error) {
	items, err := rawList(a.fields, keyVersions)
	if err != nil {
		return false, err
	}
	for _, raw := range items {
		var item struct {
			Version string `json:"version"`
		}
		if json.Unmarshal(raw, &item) == nil && item.Version == version {
			return true, nil
		}
	}
	return false, nil
}

// PrependVersion inserts v at the head of the version list
func (a *App) PrependVersion(v Version) error {
	return prependValue(a.fields, keyVersions, v)
}
