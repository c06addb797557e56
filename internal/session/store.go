package session

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "taskmovil"

// Durable storage keys for the persisted session.
const (
	KeyAuthToken = "auth_token"
	KeyUserData  = "user_data"
)

// ErrNotFound is returned by Store.Get when no value exists for a key.
var ErrNotFound = errors.New("session: key not found")

// Store is the durable string store the session is persisted in.
// Absence of a key is reported as ErrNotFound; any other error is a
// storage failure.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// KeyringStore persists session data in the system keyring.
type KeyringStore struct{}

// NewKeyringStore returns a Store backed by the system keyring.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

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
		FileDir:                  "~/.config/taskmovil/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("taskmovil-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a value by key from the system keyring.
func (s *KeyringStore) Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a value by key in the system keyring.
func (s *KeyringStore) Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}

	return nil
}

// Delete removes a key from the system keyring. Deleting a missing key
// is not an error.
func (s *KeyringStore) Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting %q: %w", key, err)
	}

	return nil
}
