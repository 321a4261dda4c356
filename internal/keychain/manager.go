// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for
// the onoffice CLI. It stores the onOffice API token and secret in the OS
// credential store (macOS Keychain, Windows Credential Manager, Secret Service
// or pass on Linux) so they need not live in config files or shell history.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "onoffice-cli"

// Keys used for storing secrets in the OS keychain.
const (
	KeyAPIToken  = "api_token"
	KeyAPISecret = "api_secret"
)

// Credentials are the stored API credentials. Empty fields are not stored.
type Credentials struct {
	Token  string
	Secret string
}

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring}, nil
}

// NewWithRing wraps an already opened keyring.
func NewWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}
	return globalManager, nil
}

// SetManager replaces the global manager. Passing nil resets it so the next
// GetManager call opens the OS keyring again.
func SetManager(m *Manager) {
	mu.Lock()
	defer mu.Unlock()
	globalManager = m
	globalError = nil
}

// openRing opens the OS keyring using native platform backends only.
func openRing() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		// pass is the fallback when the login Keychain is locked or unavailable
		allowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.PassBackend,
		}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	case "linux", "freebsd", "openbsd":
		allowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		}
	default:
		return nil, errors.New("secure storage not supported on this OS")
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
		KeychainName:    "login",
		WinCredPrefix:   ServiceName,
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. Install 'pass' as a fallback: brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

// SaveCredentials stores the non-empty fields of c.
// This method is thread-safe.
func (m *Manager) SaveCredentials(c Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.Token != "" {
		if err := m.ring.Set(keyring.Item{Key: KeyAPIToken, Data: []byte(c.Token), Label: "onOffice API token"}); err != nil {
			return err
		}
	}
	if c.Secret != "" {
		if err := m.ring.Set(keyring.Item{Key: KeyAPISecret, Data: []byte(c.Secret), Label: "onOffice API secret"}); err != nil {
			return err
		}
	}
	return nil
}

// LoadCredentials retrieves the stored credentials. Missing entries are
// returned as empty strings.
// This method is thread-safe.
func (m *Manager) LoadCredentials() (Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	token, err := m.get(KeyAPIToken)
	if err != nil {
		return Credentials{}, err
	}
	secret, err := m.get(KeyAPISecret)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Token: token, Secret: secret}, nil
}

func (m *Manager) get(key string) (string, error) {
	it, err := m.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

// Clear removes the stored credentials from the keychain.
// This method is thread-safe.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range []string{KeyAPIToken, KeyAPISecret} {
		if err := m.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return err
		}
	}
	return nil
}
