package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

const serviceName = "gatekeeper"

// KeyringTokenStore keeps each account's OAuth2 token in the OS keyring
// (macOS Keychain, Windows Credential Manager, or Linux Secret Service).
// The token grants mail and contacts access, so it never touches the
// SQLite file.
type KeyringTokenStore struct{}

// NewKeyringTokenStore returns a new KeyringTokenStore.
func NewKeyringTokenStore() *KeyringTokenStore {
	return &KeyringTokenStore{}
}

// SaveToken stores the token under the account ID, replacing any previous one.
func (k *KeyringTokenStore) SaveToken(accountID string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := keyring.Set(serviceName, accountID, string(data)); err != nil {
		return fmt.Errorf("failed to save token to keyring: %w", err)
	}
	return nil
}

// LoadToken returns ErrNotFound when the account was never authorized.
func (k *KeyringTokenStore) LoadToken(accountID string) (*oauth2.Token, error) {
	data, err := keyring.Get(serviceName, accountID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("no token for %s, run 'gatekeeper account add': %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token from keyring: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// DeleteToken removes the account's token. A missing token is not an error.
func (k *KeyringTokenStore) DeleteToken(accountID string) error {
	err := keyring.Delete(serviceName, accountID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// RenameToken moves a token from one account ID to another. Used when an
// account added under a temporary ID learns its address after OAuth.
func (k *KeyringTokenStore) RenameToken(from, to string) error {
	token, err := k.LoadToken(from)
	if err != nil {
		return err
	}
	if err := k.SaveToken(to, token); err != nil {
		return err
	}
	return k.DeleteToken(from)
}
