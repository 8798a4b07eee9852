// file: internal/spotify/token_storage.go
package spotify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/logging"
	"golang.org/x/oauth2"
)

// Token storage method names, as reported in metrics and diagnostics.
const (
	StorageMethodKeyring = "keyring"
	StorageMethodFile    = "file"
)

// TokenStorage persists the client-credentials access token between runs.
type TokenStorage interface {
	// LoadToken returns the stored token, or nil if none is stored.
	LoadToken() (*oauth2.Token, error)

	// SaveToken stores a token, replacing any previous one.
	SaveToken(token *oauth2.Token) error

	// DeleteToken removes any stored token.
	DeleteToken() error

	// Method returns the storage method name.
	Method() string
}

// TokenData is the persisted form of a token.
type TokenData struct {
	ClientID    string    `json:"clientId,omitempty"`
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType,omitempty"`
	Expiry      time.Time `json:"expiry"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newTokenData(clientID string, token *oauth2.Token) TokenData {
	return TokenData{
		ClientID:    clientID,
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		Expiry:      token.Expiry.UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

func (d TokenData) token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: d.AccessToken,
		TokenType:   d.TokenType,
		Expiry:      d.Expiry,
	}
}

// NewTokenStorage picks the OS keyring when it is usable and the file at
// tokenPath otherwise.
func NewTokenStorage(clientID, tokenPath string, disableKeyring bool, logger logging.Logger) (TokenStorage, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	if !disableKeyring {
		secure := NewSecureTokenStorage(clientID, logger)
		if secure.IsAvailable() {
			logger.Info("Using secure token storage (OS keyring).")
			return secure, nil
		}
	}
	logger.Info("Using file-based token storage.", "path", tokenPath)
	return NewFileTokenStorage(clientID, tokenPath, logger)
}

// FileTokenStorage stores the token as JSON in a file readable only by the owner.
type FileTokenStorage struct {
	clientID string
	path     string
	logger   logging.Logger
	mu       sync.RWMutex
}

var _ TokenStorage = (*FileTokenStorage)(nil)

// NewFileTokenStorage creates file storage, making the parent directory if needed.
func NewFileTokenStorage(clientID, path string, logger logging.Logger) (*FileTokenStorage, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	if path == "" {
		return nil, errors.New("token path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create token directory")
	}
	return &FileTokenStorage{
		clientID: clientID,
		path:     path,
		logger:   logger.WithField("component", "file_token_storage"),
	}, nil
}

// Method implements TokenStorage.
func (s *FileTokenStorage) Method() string { return StorageMethodFile }

// LoadToken implements TokenStorage. A token saved for a different client ID is ignored.
func (s *FileTokenStorage) LoadToken() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("Token file does not exist.")
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read token file")
	}

	var td TokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return nil, errors.Wrap(err, "failed to parse token data")
	}
	if td.ClientID != s.clientID {
		s.logger.Debug("Stored token belongs to a different client, ignoring.")
		return nil, nil
	}
	return td.token(), nil
}

// SaveToken implements TokenStorage.
func (s *FileTokenStorage) SaveToken(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return errors.New("cannot save empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(newTokenData(s.clientID, token), "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal token data")
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write token file")
	}
	s.logger.Debug("Saved access token to file.", "expiry", token.Expiry)
	return nil
}

// DeleteToken implements TokenStorage.
func (s *FileTokenStorage) DeleteToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete token file")
	}
	return nil
}
