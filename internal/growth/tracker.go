package growth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
	"github.com/PatrickWalther/unfollow-watch-go/internal/metrics"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
	"github.com/PatrickWalther/unfollow-watch-go/internal/store"
)

const (
	SeriesFollowersDaily = "followers_daily"
	SeriesStarsMonthly   = "stars_monthly"
)

type Source interface {
	FetchUser(ctx context.Context, cred models.Credential) (models.UserDetails, error)
	FetchRepos(ctx context.Context, cred models.Credential) ([]models.Repo, error)
}

type Tracker struct {
	source  Source
	daily   *SeriesStore
	monthly *SeriesStore
	metrics metrics.Recorder
	now     func() time.Time
}

func NewTracker(dataDir string, source Source, rec metrics.Recorder) *Tracker {
	if rec == nil {
		rec = metrics.Noop()
	}
	return &Tracker{
		source:  source,
		daily:   NewSeriesStore(filepath.Join(dataDir, constants.DailyFollowersFile)),
		monthly: NewSeriesStore(filepath.Join(dataDir, constants.MonthlyStarsFile)),
		metrics: rec,
		now:     time.Now,
	}
}

func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

func (t *Tracker) Daily() (Series, error) {
	return t.daily.Load()
}

func (t *Tracker) Monthly() (Series, error) {
	return t.monthly.Load()
}

// RecordDaily stores today's follower count. Running it again on the same day
// overwrites the count.
func (t *Tracker) RecordDaily(ctx context.Context, cred models.Credential) (Point, error) {
	if !cred.Valid() {
		return Point{}, store.ErrNoCredential
	}

	user, err := t.source.FetchUser(ctx, cred)
	if err != nil {
		return Point{}, fmt.Errorf("failed to fetch follower count: %w", err)
	}

	point := Point{Period: t.now().Format(constants.DailyPeriodLayout), Count: user.Followers}
	if _, err := t.daily.Update(func(s *Series) { s.Upsert(point.Period, point.Count) }); err != nil {
		return Point{}, fmt.Errorf("failed to save daily growth: %w", err)
	}

	t.metrics.SetGrowthSample(SeriesFollowersDaily, point.Count)
	slog.Debug("Recorded daily followers", "period", point.Period, "count", point.Count)
	return point, nil
}

// RecordMonthly stores the current month's total stars across owned repos.
func (t *Tracker) RecordMonthly(ctx context.Context, cred models.Credential) (Point, error) {
	if !cred.Valid() {
		return Point{}, store.ErrNoCredential
	}

	repos, err := t.source.FetchRepos(ctx, cred)
	if err != nil {
		return Point{}, fmt.Errorf("failed to fetch repositories: %w", err)
	}

	point := Point{Period: t.now().Format(constants.MonthlyPeriodLayout), Count: models.TotalStars(repos)}
	if _, err := t.monthly.Update(func(s *Series) { s.Upsert(point.Period, point.Count) }); err != nil {
		return Point{}, fmt.Errorf("failed to save monthly growth: %w", err)
	}

	t.metrics.SetGrowthSample(SeriesStarsMonthly, point.Count)
	slog.Debug("Recorded monthly stars", "period", point.Period, "count", point.Count)
	return point, nil
}

// Record runs both recorders. A failure in one does not prevent the other.
func (t *Tracker) Record(ctx context.Context, cred models.Credential) error {
	if !cred.Valid() {
		slog.Debug("Growth tracking skipped, no credential")
		return nil
	}

	_, dailyErr := t.RecordDaily(ctx, cred)
	_, monthlyErr := t.RecordMonthly(ctx, cred)
	return errors.Join(dailyErr, monthlyErr)
}
