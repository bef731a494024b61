package store

import (
	"path/filepath"
	"sync"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
)

// UnfollowerStore holds the unfollowers found by the most recent detection.
type UnfollowerStore struct {
	path string
	mu   sync.RWMutex
}

func NewUnfollowerStore(dataDir string) *UnfollowerStore {
	return &UnfollowerStore{path: filepath.Join(dataDir, constants.UnfollowersFile)}
}

// Load returns an empty record when nothing has been detected yet.
func (s *UnfollowerStore) Load() (models.UnfollowerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec models.UnfollowerRecord
	if _, err := ReadJSON(s.path, &rec); err != nil {
		return models.UnfollowerRecord{Unfollowers: []models.Follower{}}, err
	}
	if rec.Unfollowers == nil {
		rec.Unfollowers = []models.Follower{}
	}
	return rec, nil
}

func (s *UnfollowerStore) Save(rec models.UnfollowerRecord) error {
	if rec.Unfollowers == nil {
		rec.Unfollowers = []models.Follower{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteJSON(s.path, rec, 0644)
}
