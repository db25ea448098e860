package bootstrap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/term"

	"thoreinstein.com/bb/pkg/config"
	bberrors "thoreinstein.com/bb/pkg/errors"
)

// AppPasswordsURL is where Bitbucket users create app passwords.
const AppPasswordsURL = "https://bitbucket.org/account/settings/app-passwords/"

// Outcome describes how credentials were obtained.
type Outcome int

const (
	// CredentialsLoaded means an existing config file or the environment supplied them.
	CredentialsLoaded Outcome = iota
	// CredentialsCreated means the user was prompted and the config file was written.
	CredentialsCreated
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	if o == CredentialsCreated {
		return "created"
	}
	return "loaded"
}

// Prompter reads the username and app password from the user.
type Prompter struct {
	In  io.Reader
	Out io.Writer
	// ReadPassword reads a secret without echo. When nil the password is
	// read as a plain line from In.
	ReadPassword func() (string, error)
}

// NewTerminalPrompter prompts on stdin/stdout, hiding the password when
// stdin is a terminal.
func NewTerminalPrompter() *Prompter {
	p := &Prompter{In: os.Stdin, Out: os.Stdout}
	fd := int(os.Stdin.Fd()) //nolint:gosec // fd fits in int on all supported platforms
	if term.IsTerminal(fd) {
		p.ReadPassword = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(p.Out)
			return string(b), err
		}
	}
	return p
}

// CredentialsOptions configures LoadOrInitCredentials.
type CredentialsOptions struct {
	Path     string      // Config file location
	Prompter *Prompter   // Used only when credentials must be created
	Store    SecretStore // Used when bitbucket.credential_store is "keyring"
	Force    bool        // Prompt even if the config file exists
}

// LoadOrInitCredentials makes sure cfg carries usable credentials.
//
// When the config file exists (or the environment already supplied
// credentials) it returns CredentialsLoaded without touching the filesystem.
// Otherwise it prompts for a username and app password, persists them, and
// stores them in cfg for the current process.
func LoadOrInitCredentials(cfg *config.Config, opts CredentialsOptions) (Outcome, error) {
	if !opts.Force {
		if _, err := os.Stat(opts.Path); err == nil {
			if !cfg.Bitbucket.HasCredentials() {
				return CredentialsLoaded, bberrors.NewConfigError("bitbucket",
					fmt.Sprintf("no credentials found in %s for auth method %q", opts.Path, cfg.Bitbucket.AuthMethod))
			}
			return CredentialsLoaded, nil
		}
		if cfg.Bitbucket.HasCredentials() {
			return CredentialsLoaded, nil
		}
	}

	if opts.Prompter == nil {
		return CredentialsLoaded, bberrors.NewConfigError("bitbucket", "credentials are required but no prompt is available")
	}

	username, password, err := opts.Prompter.promptCredentials()
	if err != nil {
		return CredentialsLoaded, bberrors.NewConfigErrorWithCause("bitbucket", "failed to read credentials", err)
	}

	values := map[string]any{"username": username}
	if cfg.Bitbucket.CredentialStore == config.StoreKeyring && opts.Store != nil {
		if err := opts.Store.Set(username, password); err != nil {
			return CredentialsLoaded, err
		}
		values["credential_store"] = config.StoreKeyring
	} else {
		values["app_password"] = password
	}

	if err := WriteBitbucketSettings(opts.Path, values); err != nil {
		return CredentialsLoaded, err
	}

	cfg.Bitbucket.AuthMethod = config.AuthAppPassword
	cfg.Bitbucket.Username = username
	cfg.Bitbucket.AppPassword = password

	return CredentialsCreated, nil
}

func (p *Prompter) promptCredentials() (string, string, error) {
	reader := bufio.NewReader(p.In)

	fmt.Fprintf(p.Out, "Enter bitbucket app user and password (%s):\n", AppPasswordsURL)

	fmt.Fprint(p.Out, "user> ")
	username, err := readLine(reader)
	if err != nil {
		return "", "", err
	}

	fmt.Fprint(p.Out, "pswd> ")
	var password string
	if p.ReadPassword != nil {
		password, err = p.ReadPassword()
		password = strings.TrimSpace(password)
	} else {
		password, err = readLine(reader)
	}
	if err != nil {
		return "", "", err
	}

	if username == "" || password == "" {
		return "", "", bberrors.New("username and app password must not be empty")
	}
	return username, password, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// WriteBitbucketSettings merges values into the [bitbucket] table of the
// TOML config file at path, preserving every other setting in the file.
func WriteBitbucketSettings(path string, values map[string]any) error {
	doc := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &doc); err != nil {
			return bberrors.NewConfigErrorWithCause("", "failed to parse existing config file "+path, err)
		}
	}

	section, _ := doc["bitbucket"].(map[string]any)
	if section == nil {
		section = map[string]any{}
	}
	for k, v := range values {
		section[k] = v
	}
	if _, ok := values["credential_store"]; ok {
		delete(section, "app_password")
	}
	doc["bitbucket"] = section

	data, err := toml.Marshal(doc)
	if err != nil {
		return bberrors.NewConfigErrorWithCause("", "failed to encode config", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return bberrors.NewConfigErrorWithCause("", "failed to create config directory", err)
	}

	// Write with restrictive permissions (owner read/write only)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return bberrors.NewConfigErrorWithCause("", "failed to write config file "+path, err)
	}

	return nil
}
