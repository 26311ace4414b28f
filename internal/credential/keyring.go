// Package credential keeps the IMAP password out of the config file.
package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

// PasswordEnv overrides the keyring when set.
const PasswordEnv = "NOTESYNC_PASSWORD"

// ErrNoPassword is returned when no password is stored for an account.
var ErrNoPassword = errors.New("no password stored; run `notesync login`")

var ringConfig = keyring.Config{
	ServiceName: "notesync",
	AllowedBackends: []keyring.BackendType{
		keyring.KeychainBackend,
		keyring.SecretServiceBackend,
		keyring.WinCredBackend,
		keyring.PassBackend,
		keyring.FileBackend,
	},
	FileDir:                  "~/.config/notesync/credentials",
	FilePasswordFunc:         keyring.FixedStringPrompt("notesync-file-key"),
	KeychainTrustApplication: true,
}

// PasswordKey is the keyring key holding the IMAP password for login.
func PasswordKey(login string) string {
	return "imap-" + login
}

// Password returns the IMAP password for login, from the environment or
// the system keyring.
func Password(login string) (string, error) {
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}

	var pw string
	err := withRing("reading password", login, func(ring keyring.Keyring) error {
		item, err := ring.Get(PasswordKey(login))
		if err != nil {
			return err
		}
		pw = string(item.Data)
		return nil
	})
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoPassword
	}
	return pw, err
}

// SetPassword stores the IMAP password for login.
func SetPassword(login, password string) error {
	return withRing("storing password", login, func(ring keyring.Keyring) error {
		return ring.Set(keyring.Item{
			Key:   PasswordKey(login),
			Data:  []byte(password),
			Label: "notesync IMAP password for " + login,
		})
	})
}

// ForgetPassword removes the stored password for login. A missing entry
// is not an error.
func ForgetPassword(login string) error {
	err := withRing("removing password", login, func(ring keyring.Keyring) error {
		return ring.Remove(PasswordKey(login))
	})
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}

func withRing(action, login string, fn func(keyring.Keyring) error) error {
	ring, err := keyring.Open(ringConfig)
	if err != nil {
		return fmt.Errorf("opening keyring: %w", err)
	}
	if err := fn(ring); err != nil {
		return fmt.Errorf("%s for %s: %w", action, login, err)
	}
	return nil
}
