// file: internal/spotify/token_storage_secure.go
package spotify

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/logging"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

// KeyringService is the service name used for keyring entries.
const KeyringService = "Spotignition"

// SecureTokenStorage stores the token in the OS keychain, keyed by client ID.
type SecureTokenStorage struct {
	account string
	logger  logging.Logger
}

var _ TokenStorage = (*SecureTokenStorage)(nil)

// NewSecureTokenStorage creates keyring-backed storage for clientID.
func NewSecureTokenStorage(clientID string, logger logging.Logger) *SecureTokenStorage {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &SecureTokenStorage{
		account: "client:" + clientID,
		logger:  logger.WithField("component", "secure_token_storage"),
	}
}

// Method implements TokenStorage.
func (s *SecureTokenStorage) Method() string { return StorageMethodKeyring }

// IsAvailable reports whether the keyring can be read.
func (s *SecureTokenStorage) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, s.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		s.logger.Warn("Keyring service is inaccessible.", "error", err)
		return false
	}
	return true
}

// LoadToken implements TokenStorage.
func (s *SecureTokenStorage) LoadToken() (*oauth2.Token, error) {
	raw, err := keyring.Get(KeyringService, s.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			s.logger.Debug("No access token found in system keyring.")
			return nil, nil
		}
		s.logger.Error("keyring.Get operation failed.", "error", fmt.Sprintf("%+v", err))
		return nil, errors.Wrap(err, "failed to load token from system keyring")
	}

	var td TokenData
	if err := json.Unmarshal([]byte(raw), &td); err != nil {
		s.logger.Error("Token data in keyring is corrupted, deleting it.", "error", err)
		_ = s.DeleteToken()
		return nil, errors.Wrap(err, "failed to parse token data from secure storage")
	}
	return td.token(), nil
}

// SaveToken implements TokenStorage.
func (s *SecureTokenStorage) SaveToken(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return errors.New("cannot save empty token to keyring")
	}
	data, err := json.Marshal(newTokenData("", token))
	if err != nil {
		return errors.Wrap(err, "failed to encode token data for secure storage")
	}
	if err := keyring.Set(KeyringService, s.account, string(data)); err != nil {
		s.logger.Error("keyring.Set operation failed.", "error", fmt.Sprintf("%+v", err))
		return errors.Wrap(err, "failed to save token to system keyring")
	}
	s.logger.Debug("Saved access token to system keyring.", "expiry", token.Expiry)
	return nil
}

// DeleteToken implements TokenStorage.
func (s *SecureTokenStorage) DeleteToken() error {
	err := keyring.Delete(KeyringService, s.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return errors.Wrap(err, "failed to delete token from system keyring")
	}
	return nil
}

// Account returns the keyring account name used for this client.
func (s *SecureTokenStorage) Account() string { return s.account }

// DiagnoseKeychain exercises set, get and delete against a throwaway entry
// and reports the outcome of each step.
func (s *SecureTokenStorage) DiagnoseKeychain() map[string]interface{} {
	results := make(map[string]interface{})
	testAccount := s.account + ":diagnostic"
	testValue := "spotignition-keychain-check"

	if err := keyring.Set(KeyringService, testAccount, testValue); err != nil {
		results["set_success"] = false
		results["set_error"] = err.Error()
		return results
	}
	results["set_success"] = true

	got, err := keyring.Get(KeyringService, testAccount)
	if err != nil {
		results["get_success"] = false
		results["get_error"] = err.Error()
	} else {
		results["get_success"] = true
		results["value_matches"] = got == testValue
	}

	if err := keyring.Delete(KeyringService, testAccount); err != nil {
		results["delete_success"] = false
		results["delete_error"] = err.Error()
	} else {
		results["delete_success"] = true
	}
	return results
}

// KeychainAdvice returns troubleshooting hints for a failed diagnostic run.
func KeychainAdvice(results map[string]interface{}) []string {
	var advice []string
	if ok, _ := results["set_success"].(bool); !ok {
		advice = append(advice,
			"The keyring rejected a write. On Linux make sure a Secret Service provider (gnome-keyring or KWallet) is running.",
			"Set auth.disable_keyring: true to fall back to the file token store.")
		return advice
	}
	if ok, _ := results["get_success"].(bool); !ok {
		advice = append(advice, "The keyring accepted a write but could not read it back. Check that the keychain is unlocked.")
	}
	if ok, _ := results["delete_success"].(bool); !ok {
		advice = append(advice, "The keyring could not delete the diagnostic entry. Remove it manually with your keychain manager.")
	}
	return advice
}
