package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// DefaultAPIURL is the root of the Bitbucket Cloud REST API v2.
const DefaultAPIURL = "https://api.bitbucket.org/2.0"

// Config represents the application configuration
// Workspace and repository are derived from git, not configuration
type Config struct {
	Bitbucket BitbucketConfig `mapstructure:"bitbucket"`
	Display   DisplayConfig   `mapstructure:"display"`
	Git       GitConfig       `mapstructure:"git"`
	Clone     CloneConfig     `mapstructure:"clone"`
}

// BitbucketConfig holds API access configuration
type BitbucketConfig struct {
	APIURL              string   `mapstructure:"api_url"`
	AuthMethod          string   `mapstructure:"auth_method"`      // "app_password" or "token"
	Username            string   `mapstructure:"username"`         // Bitbucket username for Basic Auth
	AppPassword         string   `mapstructure:"app_password"`     // BB_BITBUCKET_APP_PASSWORD env var takes precedence
	Token               string   `mapstructure:"token"`            // Repository/workspace access token for "token" auth
	CredentialStore     string   `mapstructure:"credential_store"` // "file" or "keyring"
	DefaultReviewers    []string `mapstructure:"default_reviewers"`
	MergeStrategy       string   `mapstructure:"merge_strategy"` // "merge_commit", "squash", "fast_forward"
	CloseSourceBranch   bool     `mapstructure:"close_source_branch"`
	DeleteBranchOnMerge bool     `mapstructure:"delete_branch_on_merge"`
}

// DisplayConfig holds terminal rendering configuration
type DisplayConfig struct {
	Theme      string `mapstructure:"theme"`      // chroma style name
	Background string `mapstructure:"background"` // "default" keeps the theme background
	Color      string `mapstructure:"color"`      // "auto", "always", "never"
}

// GitConfig holds optional git configuration overrides
type GitConfig struct {
	Remote string `mapstructure:"remote"` // Remote used to derive workspace/slug and to push/pull
}

// CloneConfig holds clone command configuration
type CloneConfig struct {
	BasePath string `mapstructure:"base_path"` // Base directory for clones (default: ~/src)
	Protocol string `mapstructure:"protocol"`  // "ssh" or "https"
}

// Auth methods.
const (
	AuthAppPassword = "app_password"
	AuthToken       = "token"
)

// Credential stores.
const (
	StoreFile    = "file"
	StoreKeyring = "keyring"
)

// ValidMergeStrategies is the list of supported Bitbucket merge strategies.
var ValidMergeStrategies = []string{"merge_commit", "squash", "fast_forward"}

var (
	validAuthMethods      = []string{AuthAppPassword, AuthToken}
	validCredentialStores = []string{StoreFile, StoreKeyring}
	validColorModes       = []string{"auto", "always", "never"}
	validCloneProtocols   = []string{"ssh", "https"}
)

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	config := &Config{}

	// Set defaults
	setDefaults()

	// Unmarshal the config
	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	// Expand paths
	var err error
	config.Clone.BasePath, err = expandPath(config.Clone.BasePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to expand paths")
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return config, nil
}

// ValidateMergeStrategy validates that a merge strategy is supported.
func ValidateMergeStrategy(strategy string) error {
	if strategy == "" {
		return nil // Empty is allowed, the repository default is used
	}
	if !contains(ValidMergeStrategies, strategy) {
		return errors.Newf("invalid merge strategy %q: must be one of: merge_commit, squash, fast_forward", strategy)
	}
	return nil
}

// Validate validates the configuration and returns any validation errors.
func (c *Config) Validate() error {
	if err := ValidateMergeStrategy(c.Bitbucket.MergeStrategy); err != nil {
		return errors.Wrap(err, "bitbucket.merge_strategy")
	}
	if !contains(validAuthMethods, c.Bitbucket.AuthMethod) {
		return errors.Newf("bitbucket.auth_method: invalid value %q: must be one of: app_password, token", c.Bitbucket.AuthMethod)
	}
	if !contains(validCredentialStores, c.Bitbucket.CredentialStore) {
		return errors.Newf("bitbucket.credential_store: invalid value %q: must be one of: file, keyring", c.Bitbucket.CredentialStore)
	}
	if !contains(validColorModes, c.Display.Color) {
		return errors.Newf("display.color: invalid value %q: must be one of: auto, always, never", c.Display.Color)
	}
	if !contains(validCloneProtocols, c.Clone.Protocol) {
		return errors.Newf("clone.protocol: invalid value %q: must be one of: ssh, https", c.Clone.Protocol)
	}
	return nil
}

// HasCredentials reports whether the configured auth method has what it needs.
func (c *BitbucketConfig) HasCredentials() bool {
	if c.AuthMethod == AuthToken {
		return c.Token != ""
	}
	return c.Username != "" && c.AppPassword != ""
}

// DefaultConfigDir returns $HOME/.config/bb.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".config", "bb"), nil
}

// DefaultConfigFile returns $HOME/.config/bb/config.toml.
func DefaultConfigFile() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Bitbucket defaults
	viper.SetDefault("bitbucket.api_url", DefaultAPIURL)
	viper.SetDefault("bitbucket.auth_method", AuthAppPassword)
	viper.SetDefault("bitbucket.username", "")
	viper.SetDefault("bitbucket.app_password", "")
	viper.SetDefault("bitbucket.token", "")
	viper.SetDefault("bitbucket.credential_store", StoreFile)
	viper.SetDefault("bitbucket.default_reviewers", []string{})
	viper.SetDefault("bitbucket.merge_strategy", "")
	viper.SetDefault("bitbucket.close_source_branch", true)
	viper.SetDefault("bitbucket.delete_branch_on_merge", true)

	// Display defaults
	viper.SetDefault("display.theme", "emacs")
	viper.SetDefault("display.background", "default")
	viper.SetDefault("display.color", "auto")

	// Git defaults
	viper.SetDefault("git.remote", "origin")

	// Clone defaults (empty means ~/src)
	viper.SetDefault("clone.base_path", "")
	viper.SetDefault("clone.protocol", "ssh")
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, path[1:]), nil
}

func contains(values []string, v string) bool {
	for _, valid := range values {
		if v == valid {
			return true
		}
	}
	return false
}
