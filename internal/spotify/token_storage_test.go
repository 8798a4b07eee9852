// file: internal/spotify/token_storage_test.go
package spotify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

func testToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: "access-123",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
}

func TestFileTokenStorage_SaveLoadDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	storage, err := NewFileTokenStorage("cid", path, nil)
	require.NoError(t, err)
	assert.Equal(t, StorageMethodFile, storage.Method())

	tok, err := storage.LoadToken()
	require.NoError(t, err)
	assert.Nil(t, tok, "no token before first save")

	require.NoError(t, storage.SaveToken(testToken()))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	tok, err = storage.LoadToken()
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "access-123", tok.AccessToken)
	assert.True(t, tok.Expiry.Equal(testToken().Expiry))

	require.NoError(t, storage.DeleteToken())
	require.NoError(t, storage.DeleteToken(), "deleting twice is fine")
	tok, err = storage.LoadToken()
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestFileTokenStorage_IgnoresOtherClient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	first, err := NewFileTokenStorage("one", path, nil)
	require.NoError(t, err)
	require.NoError(t, first.SaveToken(testToken()))

	second, err := NewFileTokenStorage("two", path, nil)
	require.NoError(t, err)
	tok, err := second.LoadToken()
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestFileTokenStorage_RejectsEmptyToken(t *testing.T) {
	storage, err := NewFileTokenStorage("cid", filepath.Join(t.TempDir(), "t.json"), nil)
	require.NoError(t, err)
	assert.Error(t, storage.SaveToken(nil))
	assert.Error(t, storage.SaveToken(&oauth2.Token{}))
}

func TestSecureTokenStorage_WithMockKeyring(t *testing.T) {
	keyring.MockInit()
	storage := NewSecureTokenStorage("cid", nil)
	assert.True(t, storage.IsAvailable())
	assert.Equal(t, StorageMethodKeyring, storage.Method())

	tok, err := storage.LoadToken()
	require.NoError(t, err)
	assert.Nil(t, tok)

	require.NoError(t, storage.SaveToken(testToken()))
	tok, err = storage.LoadToken()
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "access-123", tok.AccessToken)

	require.NoError(t, storage.DeleteToken())
	tok, err = storage.LoadToken()
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestSecureTokenStorage_CorruptEntryIsDeleted(t *testing.T) {
	keyring.MockInit()
	storage := NewSecureTokenStorage("cid", nil)
	require.NoError(t, keyring.Set(KeyringService, "client:cid", "not json"))

	_, err := storage.LoadToken()
	require.Error(t, err)

	_, getErr := keyring.Get(KeyringService, "client:cid")
	assert.ErrorIs(t, getErr, keyring.ErrNotFound)
}

func TestNewTokenStorage_SelectsMethod(t *testing.T) {
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "token.json")

	storage, err := NewTokenStorage("cid", path, false, nil)
	require.NoError(t, err)
	assert.Equal(t, StorageMethodKeyring, storage.Method())

	storage, err = NewTokenStorage("cid", path, true, nil)
	require.NoError(t, err)
	assert.Equal(t, StorageMethodFile, storage.Method())
}

func TestSecureTokenStorage_DiagnoseKeychain(t *testing.T) {
	keyring.MockInit()
	storage := NewSecureTokenStorage("cid", nil)

	results := storage.DiagnoseKeychain()
	assert.Equal(t, true, results["set_success"])
	assert.Equal(t, true, results["get_success"])
	assert.Equal(t, true, results["value_matches"])
	assert.Equal(t, true, results["delete_success"])
	assert.Empty(t, KeychainAdvice(results))

	_, err := keyring.Get(KeyringService, storage.Account()+":diagnostic")
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestSecureTokenStorage_DiagnoseKeychainFailure(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))
	t.Cleanup(keyring.MockInit)
	storage := NewSecureTokenStorage("cid", nil)

	assert.False(t, storage.IsAvailable())
	results := storage.DiagnoseKeychain()
	assert.Equal(t, false, results["set_success"])
	assert.Contains(t, results["set_error"], "no secret service")
	assert.NotEmpty(t, KeychainAdvice(results))
}
