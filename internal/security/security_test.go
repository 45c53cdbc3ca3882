package security

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	passphrase := []byte("a-passphrase-longer-than-16")
	payload, err := Encrypt([]byte("sheets-api-key-value"), passphrase, nil)
	require.NoError(t, err)

	assert.EqualValues(t, 1, payload.Version)
	assert.Len(t, payload.Salt, 32)
	assert.Len(t, payload.Nonce, 12)
	assert.Len(t, payload.AuthTag, 16)

	plaintext, err := Decrypt(payload, passphrase, nil)
	require.NoError(t, err)
	assert.Equal(t, "sheets-api-key-value", string(plaintext))
}

func TestDecryptWrongPassphrase(t *testing.T) {
	payload, err := Encrypt([]byte("secret"), []byte("correct-passphrase-123"), nil)
	require.NoError(t, err)

	_, err = Decrypt(payload, []byte("wrong-passphrase-45678"), nil)
	assert.Error(t, err)
}

func TestDecryptDetectsTampering(t *testing.T) {
	passphrase := []byte("a-passphrase-longer-than-16")
	payload, err := Encrypt([]byte("secret"), passphrase, nil)
	require.NoError(t, err)

	payload.Ciphertext[0] ^= 0xFF
	_, err = Decrypt(payload, passphrase, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integrity")
}

func TestEncryptValidation(t *testing.T) {
	_, err := Encrypt(nil, []byte("a-passphrase-longer-than-16"), nil)
	assert.Error(t, err)

	_, err = Encrypt([]byte("x"), []byte("short"), nil)
	assert.Error(t, err)
}

func TestValidateEncryptionConfig(t *testing.T) {
	assert.NoError(t, ValidateEncryptionConfig(DefaultEncryptionConfig()))
	assert.Error(t, ValidateEncryptionConfig(nil))

	weak := DefaultEncryptionConfig()
	weak.SCryptN = 1024
	assert.Error(t, ValidateEncryptionConfig(weak))
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare([]byte("abc"), []byte("abc")))
	assert.False(t, SecureCompare([]byte("abc"), []byte("abd")))
	assert.False(t, SecureCompare([]byte("abc"), []byte("ab")))
}

func TestCredentialStoreRoundtrip(t *testing.T) {
	t.Setenv(passphraseEnv, "test-passphrase-0123456789")
	path := filepath.Join(t.TempDir(), "credentials.dat")
	store := NewCredentialStore(path, nil)

	ctx := context.Background()
	assert.False(t, store.Exists())

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCredentials)

	require.NoError(t, store.Save(ctx, "AIza-test-key"))
	assert.True(t, store.Exists())

	key, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AIza-test-key", key)

	// File on disk holds no plaintext key
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "AIza-test-key")
}

func TestCredentialStoreRequiresPassphrase(t *testing.T) {
	t.Setenv(passphraseEnv, "")
	store := NewCredentialStore(filepath.Join(t.TempDir(), "c.dat"), nil)

	err := store.Save(context.Background(), "key")
	assert.Error(t, err)
}

func TestCredentialStoreRejectsEmptyKey(t *testing.T) {
	t.Setenv(passphraseEnv, "test-passphrase-0123456789")
	store := NewCredentialStore(filepath.Join(t.TempDir(), "c.dat"), nil)
	assert.Error(t, store.Save(context.Background(), "   "))
}
