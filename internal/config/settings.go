package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DocsetSettings configuration for documentation search-index sets
type DocsetSettings struct {
	Enabled         bool          `mapstructure:"enabled"`
	Sources         []string      `mapstructure:"sources"`
	BaseDir         string        `mapstructure:"base_dir"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	MaxFetchSize    int64         `mapstructure:"max_fetch_size"`
	MaxResults      int           `mapstructure:"max_results"`
}

// Settings application settings
type Settings struct {
	Transport string         `mapstructure:"transport"`
	Host      string         `mapstructure:"host"`
	Port      int            `mapstructure:"port"`
	Auth      AuthSettings   `mapstructure:"auth"`
	Docsets   DocsetSettings `mapstructure:"docsets"`
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("transport", "stdio")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("auth.type", AuthTypeNone)

	// Docset defaults
	v.SetDefault("docsets.enabled", false)
	v.SetDefault("docsets.base_dir", defaultDocsetsBaseDir())
	v.SetDefault("docsets.refresh_interval", 30*time.Minute)
	v.SetDefault("docsets.fetch_timeout", 60*time.Second)
	v.SetDefault("docsets.max_fetch_size", int64(32*1024*1024)) // 32MB
	v.SetDefault("docsets.max_results", 20)

	// Environment variables
	v.SetEnvPrefix("DOCDEX_MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars for nested config
	_ = v.BindEnv("auth.type", "DOCDEX_MCP_AUTH_TYPE")
	_ = v.BindEnv("auth.basic.username", "DOCDEX_MCP_AUTH_BASIC_USERNAME")
	_ = v.BindEnv("auth.basic.password", "DOCDEX_MCP_AUTH_BASIC_PASSWORD")
	_ = v.BindEnv("auth.api_keys", "DOCDEX_MCP_AUTH_API_KEYS")

	// Docset env var bindings
	_ = v.BindEnv("docsets.enabled", "DOCDEX_MCP_DOCSETS_ENABLED")
	_ = v.BindEnv("docsets.sources", "DOCDEX_MCP_DOCSETS_SOURCES")
	_ = v.BindEnv("docsets.base_dir", "DOCDEX_MCP_DOCSETS_BASE_DIR")
	_ = v.BindEnv("docsets.refresh_interval", "DOCDEX_MCP_DOCSETS_REFRESH_INTERVAL")
	_ = v.BindEnv("docsets.fetch_timeout", "DOCDEX_MCP_DOCSETS_FETCH_TIMEOUT")
	_ = v.BindEnv("docsets.max_fetch_size", "DOCDEX_MCP_DOCSETS_MAX_FETCH_SIZE")
	_ = v.BindEnv("docsets.max_results", "DOCDEX_MCP_DOCSETS_MAX_RESULTS")

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		_ = v.BindPFlag("transport", flags.Lookup("transport"))
		_ = v.BindPFlag("host", flags.Lookup("host"))
		_ = v.BindPFlag("port", flags.Lookup("port"))
		_ = v.BindPFlag("auth.type", flags.Lookup("auth-type"))
		_ = v.BindPFlag("auth.basic.username", flags.Lookup("auth-basic-username"))
		_ = v.BindPFlag("auth.basic.password", flags.Lookup("auth-basic-password"))
		_ = v.BindPFlag("auth.api_keys", flags.Lookup("auth-api-keys"))

		// Docset CLI flags
		_ = v.BindPFlag("docsets.enabled", flags.Lookup("docsets-enabled"))
		_ = v.BindPFlag("docsets.sources", flags.Lookup("docsets-sources"))
		_ = v.BindPFlag("docsets.base_dir", flags.Lookup("docsets-base-dir"))
		_ = v.BindPFlag("docsets.refresh_interval", flags.Lookup("docsets-refresh-interval"))
		_ = v.BindPFlag("docsets.fetch_timeout", flags.Lookup("docsets-fetch-timeout"))
		_ = v.BindPFlag("docsets.max_fetch_size", flags.Lookup("docsets-max-fetch-size"))
		_ = v.BindPFlag("docsets.max_results", flags.Lookup("docsets-max-results"))
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Handle explicit parsing of API keys if provided via env var as comma-separated string
	apiKeysEnv := os.Getenv("DOCDEX_MCP_AUTH_API_KEYS")
	if apiKeysEnv != "" {
		if len(settings.Auth.APIKeys) == 0 || (len(settings.Auth.APIKeys) == 1 && strings.Contains(settings.Auth.APIKeys[0], ",")) {
			settings.Auth.APIKeys = strings.Split(apiKeysEnv, ",")
		}
	}

	// Trim spaces from API keys
	for i := range settings.Auth.APIKeys {
		settings.Auth.APIKeys[i] = strings.TrimSpace(settings.Auth.APIKeys[i])
	}

	// Handle explicit parsing of docset sources if provided via env var as comma-separated string
	sourcesEnv := os.Getenv("DOCDEX_MCP_DOCSETS_SOURCES")
	if sourcesEnv != "" {
		if len(settings.Docsets.Sources) == 0 || (len(settings.Docsets.Sources) == 1 && strings.Contains(settings.Docsets.Sources[0], ",")) {
			settings.Docsets.Sources = strings.Split(sourcesEnv, ",")
		}
	}

	// Trim spaces from docset sources
	for i := range settings.Docsets.Sources {
		settings.Docsets.Sources[i] = strings.TrimSpace(settings.Docsets.Sources[i])
	}

	// Filter out empty sources
	settings.Docsets.Sources = filterEmptyStrings(settings.Docsets.Sources)

	// Expand home directory in base_dir
	settings.Docsets.BaseDir = expandHomeDir(settings.Docsets.BaseDir)

	return &settings, nil
}

// defaultDocsetsBaseDir returns the default base directory for docset state
func defaultDocsetsBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docdex-mcp"
	}
	return filepath.Join(home, ".docdex-mcp")
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// filterEmptyStrings removes empty strings from a slice
func filterEmptyStrings(s []string) []string {
	var result []string
	for _, str := range s {
		if str != "" {
			result = append(result, str)
		}
	}
	return result
}

// ValidateSettings checks for conflicting configurations.
// Returns an error if the settings contain mutually exclusive or incomplete auth config.
func ValidateSettings(s *Settings) error {
	// Validate transport type
	switch s.Transport {
	case "stdio", "sse":
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	// Validate docset settings
	if err := validateDocsetSettings(&s.Docsets); err != nil {
		return err
	}

	return nil
}

// validateDocsetSettings validates the docsets configuration
func validateDocsetSettings(d *DocsetSettings) error {
	if !d.Enabled {
		return nil // No validation needed when disabled
	}

	if len(d.Sources) == 0 {
		return errors.New("docsets-enabled requires at least one search-index source (docsets-sources)")
	}

	if d.RefreshInterval <= 0 {
		return errors.New("docsets-refresh-interval must be positive")
	}

	if d.FetchTimeout <= 0 {
		return errors.New("docsets-fetch-timeout must be positive")
	}

	if d.MaxFetchSize <= 0 {
		return errors.New("docsets-max-fetch-size must be positive")
	}

	if d.MaxResults <= 0 {
		return errors.New("docsets-max-results must be positive")
	}

	if d.BaseDir == "" {
		return errors.New("docsets-base-dir cannot be empty")
	}

	return nil
}
