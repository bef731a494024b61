package store

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
)

// ErrNoCredential is returned when no valid credential has been saved.
var ErrNoCredential = errors.New("no valid credential stored")

type CredentialStore struct {
	path string
	mu   sync.RWMutex
}

func NewCredentialStore(dataDir string) *CredentialStore {
	return &CredentialStore{path: filepath.Join(dataDir, constants.CredentialFile)}
}

func (s *CredentialStore) Path() string {
	return s.path
}

// Load returns the stored credential. A missing, blank, malformed or
// incomplete file all yield ErrNoCredential.
func (s *CredentialStore) Load() (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cred models.Credential
	found, err := ReadJSON(s.path, &cred)
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			slog.Warn("Ignoring malformed credential file", "path", s.path, "error", err)
			return models.Credential{}, ErrNoCredential
		}
		return models.Credential{}, err
	}

	if !found || !cred.Valid() {
		return models.Credential{}, ErrNoCredential
	}

	return cred, nil
}

func (s *CredentialStore) Save(cred models.Credential) error {
	cred.Token = strings.TrimSpace(cred.Token)
	cred.Username = strings.TrimSpace(cred.Username)
	if !cred.Valid() {
		return ErrNoCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteJSON(s.path, cred, 0600)
}
