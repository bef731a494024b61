package store

import (
	"path/filepath"
	"sync"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
)

// SnapshotStore keeps one follower snapshot per tracked username.
type SnapshotStore struct {
	dataDir string
	mu      sync.RWMutex
}

func NewSnapshotStore(dataDir string) *SnapshotStore {
	return &SnapshotStore{dataDir: dataDir}
}

func (s *SnapshotStore) path(username string) string {
	return filepath.Join(s.dataDir, constants.SnapshotFilePrefix+models.LoginKey(username)+".json")
}

// Load returns nil without error when no snapshot exists yet.
func (s *SnapshotStore) Load(username string) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap models.Snapshot
	found, err := ReadJSON(s.path(username), &snap)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if snap.Followers == nil {
		snap.Followers = []models.Follower{}
	}
	return &snap, nil
}

func (s *SnapshotStore) Save(username string, snap models.Snapshot) error {
	if snap.Followers == nil {
		snap.Followers = []models.Follower{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteJSON(s.path(username), snap, 0644)
}
