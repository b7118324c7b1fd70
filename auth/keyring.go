// Package auth keeps the Tor control password in the system keyring, out of the config file.
package auth

import (
	"errors"

	"github.com/aniresolve/aniresolve/constant"
	"github.com/zalando/go-keyring"
)

const user = "tor-control-password"

// SetControlPassword stores the Tor control password.
func SetControlPassword(password string) error {
	return keyring.Set(constant.App, user, password)
}

// ControlPassword returns the stored Tor control password, or "" when none is stored.
func ControlPassword() (string, error) {
	password, err := keyring.Get(constant.App, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return password, err
}

// DeleteControlPassword removes the stored Tor control password. Deleting a missing one is not an error.
func DeleteControlPassword() error {
	err := keyring.Delete(constant.App, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
