package adapter

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/zalando/go-keyring"
)

const KeyringService = "recap"

// LookupSecret reads a secret stored in the OS keyring (macOS Keychain,
// Secret Service, Windows Credential Manager). A missing entry is not an
// error and returns an empty string.
func LookupSecret(user string) (string, error) {
	secret, err := keyring.Get(KeyringService, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", goerr.Wrap(err, "failed to read keyring",
			goerr.V("service", KeyringService),
			goerr.V("user", user))
	}
	return secret, nil
}

// StoreSecret saves a secret into the OS keyring
func StoreSecret(user, secret string) error {
	if err := keyring.Set(KeyringService, user, secret); err != nil {
		return goerr.Wrap(err, "failed to write keyring",
			goerr.V("service", KeyringService),
			goerr.V("user", user))
	}
	return nil
}
