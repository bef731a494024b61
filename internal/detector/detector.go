package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/PatrickWalther/unfollow-watch-go/internal/metrics"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
	"github.com/PatrickWalther/unfollow-watch-go/internal/store"
)

type Gateway interface {
	FetchFollowers(ctx context.Context, cred models.Credential) ([]models.Follower, error)
	FetchFollowing(ctx context.Context, cred models.Credential) ([]models.Follower, error)
	Unfollow(ctx context.Context, cred models.Credential, login string) error
}

type SnapshotStore interface {
	Load(username string) (*models.Snapshot, error)
	Save(username string, snap models.Snapshot) error
}

type UnfollowerStore interface {
	Save(rec models.UnfollowerRecord) error
}

type Notifier interface {
	NotifyUnfollower(ctx context.Context, f models.Follower)
	NotifyAutoUnfollow(ctx context.Context, f models.Follower)
}

// Options carries the settings-driven behaviour of one cycle.
type Options struct {
	AutoUnfollow bool
}

type Result struct {
	CycleID        string            `json:"cycleId"`
	Quiescent      bool              `json:"quiescent"`
	FirstRun       bool              `json:"firstRun"`
	Followers      int               `json:"followers"`
	Unfollowers    []models.Follower `json:"unfollowers"`
	AutoUnfollowed []string          `json:"autoUnfollowed,omitempty"`
	CheckedAt      time.Time         `json:"checkedAt"`
}

type Detector struct {
	gateway     Gateway
	snapshots   SnapshotStore
	unfollowers UnfollowerStore
	notifier    Notifier
	metrics     metrics.Recorder
	now         func() time.Time
}

func New(gateway Gateway, snapshots SnapshotStore, unfollowers UnfollowerStore, notifier Notifier, rec metrics.Recorder) *Detector {
	if rec == nil {
		rec = metrics.Noop()
	}
	return &Detector{
		gateway:     gateway,
		snapshots:   snapshots,
		unfollowers: unfollowers,
		notifier:    notifier,
		metrics:     rec,
		now:         time.Now,
	}
}

// SetClock replaces the time source.
func (d *Detector) SetClock(now func() time.Time) {
	d.now = now
}

// Detect runs one detection cycle for cred. An invalid credential yields a
// quiescent result. Any fetch or persistence failure returns an error and
// leaves both stores as they were before the failing write.
func (d *Detector) Detect(ctx context.Context, cred models.Credential, opts Options) (Result, error) {
	result := Result{
		CycleID:     uuid.NewString(),
		Unfollowers: []models.Follower{},
	}

	if !cred.Valid() {
		result.Quiescent = true
		d.metrics.IncCycles("quiescent")
		slog.Debug("Detection skipped, no credential", "cycle", result.CycleID)
		return result, nil
	}

	current, err := d.gateway.FetchFollowers(ctx, cred)
	if err != nil {
		d.metrics.IncCycles("error")
		return result, fmt.Errorf("failed to fetch followers: %w", err)
	}
	result.Followers = len(current)

	previous, err := d.snapshots.Load(cred.Username)
	if err != nil {
		if !errors.Is(err, store.ErrMalformed) {
			d.metrics.IncCycles("error")
			return result, fmt.Errorf("failed to load snapshot: %w", err)
		}
		slog.Warn("Previous snapshot is malformed, treating as first run", "username", cred.Username, "error", err)
		previous = nil
	}

	checkedAt := d.now()
	result.CheckedAt = checkedAt

	if previous == nil {
		result.FirstRun = true
	} else {
		result.Unfollowers = Diff(previous.Followers, current)
	}

	if len(result.Unfollowers) > 0 {
		rec := models.UnfollowerRecord{Unfollowers: result.Unfollowers, LastChecked: checkedAt}
		if err := d.unfollowers.Save(rec); err != nil {
			d.metrics.IncCycles("error")
			return result, fmt.Errorf("failed to save unfollowers: %w", err)
		}
	}

	if err := d.snapshots.Save(cred.Username, models.Snapshot{Followers: current, LastChecked: checkedAt}); err != nil {
		d.metrics.IncCycles("error")
		return result, fmt.Errorf("failed to save snapshot: %w", err)
	}

	d.metrics.IncCycles("ok")
	d.metrics.AddUnfollowers(len(result.Unfollowers))

	for _, f := range result.Unfollowers {
		slog.Info("Unfollower detected", "cycle", result.CycleID, "login", f.Login)
		if d.notifier != nil {
			d.notifier.NotifyUnfollower(ctx, f)
		}
	}

	if opts.AutoUnfollow && len(result.Unfollowers) > 0 {
		result.AutoUnfollowed = d.autoUnfollow(ctx, cred, result.Unfollowers)
	}

	slog.Info("Detection cycle finished",
		"cycle", result.CycleID,
		"followers", result.Followers,
		"unfollowers", len(result.Unfollowers),
		"firstRun", result.FirstRun,
	)

	return result, nil
}

// autoUnfollow unfollows every unfollower the user still follows. Failures
// are logged and do not affect the cycle.
func (d *Detector) autoUnfollow(ctx context.Context, cred models.Credential, unfollowers []models.Follower) []string {
	following, err := d.gateway.FetchFollowing(ctx, cred)
	if err != nil {
		slog.Error("Auto-unfollow skipped, failed to fetch following", "error", err)
		return nil
	}

	followingSet := models.LoginSet(following)
	var done []string
	for _, f := range unfollowers {
		if _, ok := followingSet[f.Key()]; !ok {
			continue
		}
		if err := d.gateway.Unfollow(ctx, cred, f.Login); err != nil {
			slog.Error("Auto-unfollow failed", "login", f.Login, "error", err)
			continue
		}
		done = append(done, f.Login)
		if d.notifier != nil {
			d.notifier.NotifyAutoUnfollow(ctx, f)
		}
	}
	return done
}

// Diff returns the followers of previous whose login is absent from current,
// in previous order. Logins compare case-insensitively and each login is
// reported once.
func Diff(previous, current []models.Follower) []models.Follower {
	currentSet := models.LoginSet(current)
	seen := make(map[string]struct{}, len(previous))

	unfollowers := []models.Follower{}
	for _, f := range previous {
		key := f.Key()
		if _, ok := currentSet[key]; ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unfollowers = append(unfollowers, f)
	}
	return unfollowers
}
