package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName = "smartscribe"
	tokenKey    = "session-token"
	userIDKey   = "user-id"
)

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = errors.New("credential not found")

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/smartscribe/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("smartscribe-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Store is the keyring-backed session credential store. It holds the
// bearer token and user id the notification layer depends on.
type Store struct{}

// Token returns the stored session token, or ErrNotFound when the user
// is not logged in. An absent token is a normal state during startup,
// not a failure.
func (Store) Token() (string, error) {
	return get(tokenKey)
}

// UserID returns the stored user identifier used for channel scoping.
func (Store) UserID() (string, error) {
	return get(userIDKey)
}

// SaveSession stores the session token and user id after a successful login.
func (Store) SaveSession(token, userID string) error {
	if err := set(tokenKey, token); err != nil {
		return err
	}
	return set(userIDKey, userID)
}

// ClearSession removes the stored session on logout. Missing entries are
// not an error.
func (Store) ClearSession() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}
	for _, key := range []string{tokenKey, userIDKey} {
		if err := ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("deleting credential %q: %w", key, err)
		}
	}
	return nil
}

// get retrieves a credential value by key from the system keyring.
func get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// set stores a credential value by key in the system keyring.
func set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}
