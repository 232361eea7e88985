// Package config resolves altsync settings from defaults, a config file,
// ALTSYNC_* environment variables and command-line flags.
package config

//go:generate sh -c "cd ../.. && go run ./tools/config-schema-generator/"

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every environment override (ALTSYNC_BUNDLE_ID, ...)
	EnvPrefix = "altsync"

	// ConfigName is the base name searched for when no file is given
	ConfigName = "altsync"
)

// NewsConfig controls the optional news entry announcing a release
type NewsConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled" mapstructure:"enabled" jsonschema:"description=Prepend a news item for every new release"`
	Caption   string `yaml:"caption" toml:"caption" mapstructure:"caption"`
	TintColor string `yaml:"tint_color" toml:"tint_color" mapstructure:"tint_color" jsonschema:"pattern=^[0-9a-fA-F]{6}$"`
	Notify    bool   `yaml:"notify" toml:"notify" mapstructure:"notify"`
}

// Config holds everything a sync run needs
type Config struct {
	Repository     string     `yaml:"repository" toml:"repository" mapstructure:"repository" jsonschema:"description=GitHub repository in owner/name form"`
	BundleID       string     `yaml:"bundle_id" toml:"bundle_id" mapstructure:"bundle_id" jsonschema:"description=Bundle identifier written to the catalog"`
	MinOSVersion   string     `yaml:"min_os_version" toml:"min_os_version" mapstructure:"min_os_version"`
	CatalogPath    string     `yaml:"catalog_path" toml:"catalog_path" mapstructure:"catalog_path" jsonschema:"description=Path of the AltStore source JSON file"`
	APIURL         string     `yaml:"api_url" toml:"api_url" mapstructure:"api_url"`
	Timeout        string     `yaml:"timeout" toml:"timeout" mapstructure:"timeout" jsonschema:"description=Request timeout as a Go duration such as 30s"`
	PerPage        int        `yaml:"per_page" toml:"per_page" mapstructure:"per_page" jsonschema:"minimum=1,maximum=100"`
	AssetExtension string     `yaml:"asset_extension" toml:"asset_extension" mapstructure:"asset_extension"`
	ReleaseMarker  string     `yaml:"release_marker" toml:"release_marker" mapstructure:"release_marker" jsonschema:"description=Release notes before this phrase are dropped"`
	MatchBundleID  bool       `yaml:"match_bundle_id" toml:"match_bundle_id" mapstructure:"match_bundle_id"`
	News           NewsConfig `yaml:"news" toml:"news" mapstructure:"news"`
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions lists every setting with its default and meaning.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "repository", Default: "Aidoku/Aidoku", Comment: "GitHub repository whose releases are tracked"},
		{Key: "bundle_id", Default: "app.aidoku.Aidoku", Comment: "Bundle identifier written to the app entry and featuredApps"},
		{Key: "min_os_version", Default: "15.0", Comment: "minOSVersion of new version records"},
		{Key: "catalog_path", Default: ".github/workflows/supporting/altstore/apps.json", Comment: "AltStore source file to update"},
		{Key: "api_url", Default: "https://api.github.com", Comment: "GitHub REST API root"},
		{Key: "timeout", Default: "30s", Comment: "Timeout for the release list request"},
		{Key: "per_page", Default: 100, Comment: "Releases requested from the API (max 100)"},
		{Key: "asset_extension", Default: ".ipa", Comment: "Suffix of the installable release asset"},
		{Key: "release_marker", Default: "Aidoku Release Information", Comment: "Release notes before this phrase are dropped"},
		{Key: "match_bundle_id", Default: false, Comment: "Pick the app by bundle identifier instead of the first entry"},

		{Key: "news.enabled", Default: false, Comment: "Prepend a news item for every new release"},
		{Key: "news.caption", Default: "New version of Aidoku just got released!", Comment: "News item caption"},
		{Key: "news.tint_color", Default: "ff375f", Comment: "News item tint colour (hex, no #)"},
		{Key: "news.notify", Default: true, Comment: "Ask clients to notify about the news item"},
	}
}

// Default returns the configuration with no file, env or flags applied
func Default() *Config {
	v := viper.New()
	applyDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence defaults < file < env < flags.
// Flags must already be bound to v. A config file set with SetConfigFile must
// exist; otherwise altsync.{yml,yaml,toml} is looked up in the working
// directory and .github/.
func Load(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(".")
		v.AddConfigPath(".github")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var (
	repoRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
	hexRegex  = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if !repoRegex.MatchString(c.Repository) {
		errs = append(errs, fmt.Errorf("repository must be owner/name, got %q", c.Repository))
	}
	if strings.TrimSpace(c.BundleID) == "" {
		errs = append(errs, errors.New("bundle_id is required"))
	}
	if strings.TrimSpace(c.MinOSVersion) == "" {
		errs = append(errs, errors.New("min_os_version is required"))
	}
	if strings.TrimSpace(c.CatalogPath) == "" {
		errs = append(errs, errors.New("catalog_path is required"))
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		errs = append(errs, fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL))
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be a positive duration, got %q", c.Timeout))
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		errs = append(errs, fmt.Errorf("per_page must be between 1 and 100, got %d", c.PerPage))
	}
	if !strings.HasPrefix(c.AssetExtension, ".") || len(c.AssetExtension) < 2 {
		errs = append(errs, fmt.Errorf("asset_extension must start with a dot, got %q", c.AssetExtension))
	}
	if c.News.Enabled && !hexRegex.MatchString(c.News.TintColor) {
		errs = append(errs, fmt.Errorf("news.tint_color must be 6 hex digits, got %q", c.News.TintColor))
	}

	return errors.Join(errs...)
}

// RequestTimeout returns the parsed timeout. Call Validate first.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}
