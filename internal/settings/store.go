package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/gookit/validate"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
	"github.com/PatrickWalther/unfollow-watch-go/internal/store"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid settings")

// Validate checks field constraints on a full settings value.
func Validate(s Settings) error {
	v := validate.Struct(&s)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", ErrInvalid, v.Errors.One())
	}
	return nil
}

// Store persists settings in a single JSON document. Keys missing from the
// document keep their default values.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, constants.SettingsFile)}
}

func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (Settings, error) {
	current := Defaults()
	if _, err := store.ReadJSON(s.path, &current); err != nil {
		if errors.Is(err, store.ErrMalformed) {
			slog.Warn("Settings file is malformed, using defaults", "path", s.path, "error", err)
			return Defaults(), nil
		}
		return Defaults(), err
	}

	if err := Validate(current); err != nil {
		repaired, dropped := repair(current)
		slog.Warn("Stored settings are invalid, reverting fields to defaults", "fields", dropped, "error", err)
		return repaired, nil
	}
	return current, nil
}

// repair keeps every stored field that is valid on its own and reverts the
// others to their defaults. It returns the JSON keys that were reverted.
func repair(stored Settings) (Settings, []string) {
	full := stored.ToPatch()
	fields := []struct {
		key   string
		patch Patch
	}{
		{"refreshIntervalMinutes", Patch{RefreshIntervalMinutes: full.RefreshIntervalMinutes}},
		{"notificationsEnabled", Patch{NotificationsEnabled: full.NotificationsEnabled}},
		{"closeToTray", Patch{CloseToTray: full.CloseToTray}},
		{"theme", Patch{Theme: full.Theme}},
		{"accentColor", Patch{AccentColor: full.AccentColor}},
		{"autoUnfollow", Patch{AutoUnfollow: full.AutoUnfollow}},
	}

	result := Defaults()
	var dropped []string
	for _, f := range fields {
		if Validate(Defaults().Apply(f.patch)) != nil {
			dropped = append(dropped, f.key)
			continue
		}
		result = result.Apply(f.patch)
	}
	return result, dropped
}

// Save merges the patch onto the persisted settings and writes the result.
// It returns the settings before and after the change.
func (s *Store) Save(p Patch) (previous, current Settings, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err = s.load()
	if err != nil {
		return previous, previous, err
	}

	current = previous.Apply(p)
	if err := Validate(current); err != nil {
		return previous, previous, err
	}

	if err := store.WriteJSON(s.path, current, 0644); err != nil {
		return previous, previous, fmt.Errorf("failed to save settings: %w", err)
	}
	return previous, current, nil
}

// Reset overwrites the persisted settings with the defaults.
func (s *Store) Reset() (previous, current Settings, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err = s.load()
	if err != nil {
		previous = Defaults()
	}

	current = Defaults()
	if err := store.WriteJSON(s.path, current, 0644); err != nil {
		return previous, previous, fmt.Errorf("failed to reset settings: %w", err)
	}
	return previous, current, nil
}
