package core

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultRecordAndDetokenize(t *testing.T) {
	vault := NewTokenVault(VaultConfig{})
	require.NoError(t, vault.Initialize())
	defer vault.Shutdown()

	vault.Record("TOKEN_SSN_abcd1234", "123-45-6789", CategorySSN)
	assert.Equal(t, 1, vault.Len())

	original, err := vault.Detokenize("TOKEN_SSN_abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "123-45-6789", original)
}

func TestVaultUnknownToken(t *testing.T) {
	vault := NewTokenVault(VaultConfig{})

	_, err := vault.Detokenize("TOKEN_SSN_missing")
	assert.Error(t, err)
}

func TestVaultRevoke(t *testing.T) {
	vault := NewTokenVault(VaultConfig{})

	vault.Record("TOKEN_EMAIL_aaaa0000", "jane@example.com", CategoryEmail)
	require.NoError(t, vault.Revoke("TOKEN_EMAIL_aaaa0000"))
	assert.Equal(t, 0, vault.Len())

	_, err := vault.Detokenize("TOKEN_EMAIL_aaaa0000")
	assert.Error(t, err)

	assert.Error(t, vault.Revoke("TOKEN_EMAIL_aaaa0000"))
}

func TestVaultIgnoresEmptyRecords(t *testing.T) {
	vault := NewTokenVault(VaultConfig{})

	vault.Record("", "value", CategoryEmail)
	vault.Record("TOKEN_EMAIL_aaaa0000", "", CategoryEmail)
	assert.Equal(t, 0, vault.Len())
}

func TestVaultExpiredToken(t *testing.T) {
	vault := NewTokenVault(VaultConfig{TokenTTL: time.Millisecond})

	vault.Record("TOKEN_SSN_abcd1234", "123-45-6789", CategorySSN)
	time.Sleep(10 * time.Millisecond)

	_, err := vault.Detokenize("TOKEN_SSN_abcd1234")
	assert.ErrorContains(t, err, "expired")
}

func TestVaultPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault", "tokens.json")

	first := NewTokenVault(VaultConfig{
		EnablePersistence: true,
		PersistencePath:   path,
	})
	require.NoError(t, first.Initialize())
	first.Record("TOKEN_SSN_abcd1234", "123-45-6789", CategorySSN)
	require.NoError(t, first.Shutdown())

	second := NewTokenVault(VaultConfig{
		EnablePersistence: true,
		PersistencePath:   path,
	})
	require.NoError(t, second.Initialize())
	defer second.Shutdown()

	original, err := second.Detokenize("TOKEN_SSN_abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "123-45-6789", original)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Setenv(EncryptionKeyEnv, "0123456789abcdef0123456789abcdef")

	encrypted, err := EncryptText("123-45-6789")
	require.NoError(t, err)
	assert.NotEqual(t, "123-45-6789", encrypted)

	decrypted, err := DecryptText(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "123-45-6789", decrypted)
}

func TestEncryptTextWithoutKey(t *testing.T) {
	t.Setenv(EncryptionKeyEnv, "")

	_, err := EncryptText("123-45-6789")
	assert.Error(t, err)
}

func TestVaultEncryptedRecord(t *testing.T) {
	t.Setenv(EncryptionKeyEnv, "0123456789abcdef0123456789abcdef")

	vault := NewTokenVault(VaultConfig{EnableEncryption: true})
	vault.Record("TOKEN_SSN_abcd1234", "123-45-6789", CategorySSN)

	original, err := vault.Detokenize("TOKEN_SSN_abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "123-45-6789", original)
}
