package bootstrap

import (
	"github.com/zalando/go-keyring"

	bberrors "thoreinstein.com/bb/pkg/errors"
)

// KeyringService is the keychain service name for bb app passwords.
const KeyringService = "bb-bitbucket"

// SecretStore stores an app password per Bitbucket username.
type SecretStore interface {
	Get(username string) (string, error)
	Set(username, secret string) error
	Delete(username string) error
}

// KeychainStore uses macOS keychain / Linux secret service / Windows credential manager.
type KeychainStore struct {
	service string
}

// NewKeychainStore creates a keychain-backed SecretStore.
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{service: KeyringService}
}

// Available reports whether the keychain can be written on this system.
func (k *KeychainStore) Available() bool {
	testService := k.service + "-test"
	if err := keyring.Set(testService, "test", "test"); err != nil {
		return false
	}
	_ = keyring.Delete(testService, "test")
	return true
}

// Get retrieves the app password for username. A missing entry is not an error.
func (k *KeychainStore) Get(username string) (string, error) {
	secret, err := keyring.Get(k.service, username)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", nil
		}
		return "", bberrors.NewConfigErrorWithCause("bitbucket.credential_store", "failed to read from keychain", err)
	}
	return secret, nil
}

// Set stores the app password for username.
func (k *KeychainStore) Set(username, secret string) error {
	if err := keyring.Set(k.service, username, secret); err != nil {
		return bberrors.NewConfigErrorWithCause("bitbucket.credential_store", "failed to save to keychain", err)
	}
	return nil
}

// Delete removes the stored app password for username.
func (k *KeychainStore) Delete(username string) error {
	err := keyring.Delete(k.service, username)
	if err != nil && err != keyring.ErrNotFound {
		return bberrors.NewConfigErrorWithCause("bitbucket.credential_store", "failed to clear keychain", err)
	}
	return nil
}
