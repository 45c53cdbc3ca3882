package security

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Passphrase environment variable for the credential store
const passphraseEnv = "LOGLENS_CREDENTIALS_PASSPHRASE"

// ErrNoCredentials is returned when the store holds no saved key
var ErrNoCredentials = errors.New("no credentials saved")

// CredentialStore keeps the Google Sheets API key encrypted on disk.
// The key never rests in plaintext; it is sealed with a passphrase taken
// from the environment.
type CredentialStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewCredentialStore creates a store backed by the given file path
func NewCredentialStore(path string, logger *slog.Logger) *CredentialStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialStore{
		path:   path,
		logger: logger.With(slog.String("component", "credential_store")),
	}
}

// Save encrypts and writes the API key
func (s *CredentialStore) Save(ctx context.Context, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("api key cannot be empty")
	}

	passphrase, err := s.passphrase()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := Encrypt([]byte(apiKey), passphrase, nil)
	if err != nil {
		return fmt.Errorf("encrypt api key: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}

	s.logger.InfoContext(ctx, "credentials saved",
		slog.String("path", s.path))
	return nil
}

// Load decrypts and returns the API key
func (s *CredentialStore) Load(ctx context.Context) (string, error) {
	passphrase, err := s.passphrase()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", ErrNoCredentials
	}
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}

	var payload EncryptedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parse credentials: %w", err)
	}

	plaintext, err := Decrypt(&payload, passphrase, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt credentials: %w", err)
	}
	defer wipe(plaintext)

	s.logger.DebugContext(ctx, "credentials loaded",
		slog.String("path", s.path))
	return string(plaintext), nil
}

// Exists reports whether a credentials file is present
func (s *CredentialStore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(s.path)
	return err == nil
}

// SheetsService builds a Google Sheets client from the stored API key.
// A key set directly in the environment (LOGLENS_SHEETS_API_KEY) takes
// precedence over the encrypted store.
func (s *CredentialStore) SheetsService(ctx context.Context) (*sheets.Service, error) {
	apiKey := os.Getenv("LOGLENS_SHEETS_API_KEY")
	if apiKey == "" {
		var err error
		apiKey, err = s.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load sheets api key: %w", err)
		}
	}

	svc, err := sheets.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (s *CredentialStore) passphrase() ([]byte, error) {
	passphrase := os.Getenv(passphraseEnv)
	if len(passphrase) < 16 {
		return nil, fmt.Errorf("%s must be set to at least 16 characters", passphraseEnv)
	}
	return []byte(passphrase), nil
}
