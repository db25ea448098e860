package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"thoreinstein.com/bb/pkg/config"
)

// InitConfig reads in config file and ENV variables if set.
// A missing config file is not an error: LoadOrInitCredentials decides what
// to do about it once a command actually needs credentials.
func InitConfig(cfgFile string, verbose bool) (*config.Config, error) {
	// Reset Viper state to avoid carrying over stale settings from previous loads.
	viper.Reset()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := config.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		viper.AddConfigPath(dir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	// Repository-local .env values become environment for the BB_ prefix below.
	LoadDotEnv(verbose)

	viper.SetEnvPrefix("BB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	} else if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := resolveStoredSecret(cfg, verbose); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveStoredSecret fills the app password from the keychain when the
// config points there and nothing else supplied it.
func resolveStoredSecret(cfg *config.Config, verbose bool) error {
	bb := &cfg.Bitbucket
	if bb.CredentialStore != config.StoreKeyring || bb.AppPassword != "" || bb.Username == "" {
		return nil
	}

	secret, err := NewKeychainStore().Get(bb.Username)
	if err != nil {
		return err
	}
	if secret == "" && verbose {
		fmt.Fprintf(os.Stderr, "Warning: no app password for %s found in keychain\n", bb.Username)
	}
	bb.AppPassword = secret
	return nil
}

// LoadDotEnv loads .env from the git root (or current directory) if present.
// Existing environment variables are not overridden.
func LoadDotEnv(verbose bool) {
	path := ".env"
	if gitRoot, err := FindGitRoot(); err == nil && gitRoot != "" {
		path = filepath.Join(gitRoot, ".env")
	}

	if _, err := os.Stat(path); err != nil {
		return
	}

	if err := godotenv.Load(path); err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", path, err)
		}
		return
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Loaded environment from %s\n", path)
	}
}

// ConfigFilePath returns the explicit config file or the default location.
func ConfigFilePath(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigFile()
}

// FindGitRoot finds the root of the current git repository
func FindGitRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		gitPath := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitPath); err == nil {
			if info.IsDir() || info.Mode().IsRegular() {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
