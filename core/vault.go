package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// VaultEntry records a tokenized value with metadata
type VaultEntry struct {
	// The token as it appears in masked output
	Token string `json:"token"`

	// When the token was created
	CreatedAt time.Time `json:"created_at"`

	// When the token expires (zero time means no expiration)
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// Original value, stored encrypted if EnableEncryption is true
	Original string `json:"original,omitempty"`

	// Whether the original value is encrypted
	IsEncrypted bool `json:"is_encrypted,omitempty"`

	// PII category of the tokenized value
	Category PIICategory `json:"category,omitempty"`

	// Hash of the original value for verification
	OriginalHash string `json:"original_hash"`
}

// VaultConfig defines configuration for the token vault
type VaultConfig struct {
	// Whether to encrypt the original values
	EnableEncryption bool

	// Whether to persist the vault to disk
	EnablePersistence bool

	// Path to persist the vault
	PersistencePath string

	// How long tokens are valid for (zero means no expiration)
	TokenTTL time.Duration

	// How often to check for expired tokens
	ExpirationCheckInterval time.Duration
}

// TokenVault stores the mapping from masking tokens back to originals
// so tokenized values can be reversed under controlled access
type TokenVault struct {
	config VaultConfig

	// Map from token to entry
	entries map[string]VaultEntry

	// Lock for concurrent access
	lock sync.RWMutex

	// Channel to signal shutdown of background tasks
	stopCh chan struct{}

	initialized bool
}

// NewTokenVault creates a new vault with the given configuration
func NewTokenVault(config VaultConfig) *TokenVault {
	return &TokenVault{
		config:  config,
		entries: make(map[string]VaultEntry),
		stopCh:  make(chan struct{}),
	}
}

// Initialize sets up the vault
func (v *TokenVault) Initialize() error {
	if v.initialized {
		return nil
	}

	// Load from disk if persistence is enabled
	if v.config.EnablePersistence {
		if err := v.loadFromDisk(); err != nil {
			// Log but continue, a missing or bad vault file is not fatal
			LogScanEvent("", "vault_load_failed", SeverityWarning, "", map[string]string{
				"error": err.Error(),
			})
		}
	}

	// Start background expiry
	if v.config.TokenTTL > 0 && v.config.ExpirationCheckInterval > 0 {
		go v.expirationChecker()
	}

	v.initialized = true
	return nil
}

// Shutdown gracefully shuts down the vault
func (v *TokenVault) Shutdown() error {
	close(v.stopCh)

	if v.config.EnablePersistence {
		return v.persistToDisk()
	}

	return nil
}

// Record stores a token's original value. Encryption failures are
// logged and the original is dropped rather than stored in plaintext.
func (v *TokenVault) Record(token, original string, category PIICategory) {
	if token == "" || original == "" {
		return
	}

	now := time.Now()

	var expiresAt time.Time
	if v.config.TokenTTL > 0 {
		expiresAt = now.Add(v.config.TokenTTL)
	}

	stored := original
	isEncrypted := false

	if v.config.EnableEncryption {
		encrypted, err := EncryptText(original)
		if err != nil {
			LogScanEvent("", "vault_encryption_failed", SeverityWarning, "", map[string]string{
				"category": string(category),
				"error":    err.Error(),
			})
			stored = ""
		} else {
			stored = encrypted
			isEncrypted = true
		}
	}

	entry := VaultEntry{
		Token:        token,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
		Original:     stored,
		IsEncrypted:  isEncrypted,
		Category:     category,
		OriginalHash: originalHash(original),
	}

	v.lock.Lock()
	v.entries[token] = entry
	v.lock.Unlock()

	if v.config.EnablePersistence {
		go v.persistToDisk()
	}
}

// Detokenize converts a token back to its original value
func (v *TokenVault) Detokenize(token string) (string, error) {
	v.lock.RLock()
	entry, exists := v.entries[token]
	v.lock.RUnlock()

	if !exists {
		return "", fmt.Errorf("token not found")
	}

	if !entry.ExpiresAt.IsZero() && entry.ExpiresAt.Before(time.Now()) {
		return "", fmt.Errorf("token expired")
	}

	if entry.Original == "" {
		return "", fmt.Errorf("original value not stored")
	}

	if entry.IsEncrypted {
		original, err := DecryptText(entry.Original)
		if err != nil {
			return "", fmt.Errorf("failed to decrypt original value: %w", err)
		}
		return original, nil
	}

	return entry.Original, nil
}

// Revoke removes a token from the vault
func (v *TokenVault) Revoke(token string) error {
	v.lock.Lock()
	_, exists := v.entries[token]
	if exists {
		delete(v.entries, token)
	}
	v.lock.Unlock()

	if !exists {
		return fmt.Errorf("token not found")
	}

	if v.config.EnablePersistence {
		go v.persistToDisk()
	}

	return nil
}

// Len returns the number of live entries
func (v *TokenVault) Len() int {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return len(v.entries)
}

// loadFromDisk loads the vault from disk
func (v *TokenVault) loadFromDisk() error {
	v.lock.Lock()
	defer v.lock.Unlock()

	if _, err := os.Stat(v.config.PersistencePath); os.IsNotExist(err) {
		// File doesn't exist yet, that's OK
		return nil
	}

	data, err := os.ReadFile(v.config.PersistencePath)
	if err != nil {
		return fmt.Errorf("failed to read token vault: %w", err)
	}

	var entries []VaultEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse token vault: %w", err)
	}

	for _, entry := range entries {
		// Skip expired tokens
		if !entry.ExpiresAt.IsZero() && entry.ExpiresAt.Before(time.Now()) {
			continue
		}
		v.entries[entry.Token] = entry
	}

	return nil
}

// persistToDisk saves the vault to disk
func (v *TokenVault) persistToDisk() error {
	v.lock.RLock()
	entries := make([]VaultEntry, 0, len(v.entries))
	for _, entry := range v.entries {
		entries = append(entries, entry)
	}
	v.lock.RUnlock()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize token vault: %w", err)
	}

	dir := filepath.Dir(v.config.PersistencePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory for token vault: %w", err)
		}
	}

	if err := os.WriteFile(v.config.PersistencePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token vault: %w", err)
	}

	return nil
}

// expirationChecker periodically removes expired tokens
func (v *TokenVault) expirationChecker() {
	ticker := time.NewTicker(v.config.ExpirationCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			v.removeExpiredTokens()
		case <-v.stopCh:
			return
		}
	}
}

// removeExpiredTokens removes expired tokens from the vault
func (v *TokenVault) removeExpiredTokens() {
	v.lock.Lock()
	now := time.Now()
	expiredCount := 0

	for token, entry := range v.entries {
		if !entry.ExpiresAt.IsZero() && entry.ExpiresAt.Before(now) {
			delete(v.entries, token)
			expiredCount++
		}
	}
	v.lock.Unlock()

	if expiredCount > 0 {
		LogScanEvent("", "tokens_expired", SeverityInfo, "", map[string]string{
			"count": fmt.Sprintf("%d", expiredCount),
		})

		if v.config.EnablePersistence {
			v.persistToDisk()
		}
	}
}

// originalHash creates a hash of a value for verification
func originalHash(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:])
}
