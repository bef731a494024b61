package analytics

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
	"github.com/PatrickWalther/unfollow-watch-go/internal/growth"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
)

const (
	DefaultTopRepos   = 5
	DefaultActiveDays = 7
)

type Source interface {
	FetchRepos(ctx context.Context, cred models.Credential) ([]models.Repo, error)
	FetchEvents(ctx context.Context, cred models.Credential) ([]models.Event, error)
}

type GrowthReader interface {
	Daily() (growth.Series, error)
	Monthly() (growth.Series, error)
}

type Service struct {
	source     Source
	growth     GrowthReader
	topRepos   int
	activeDays int
	now        func() time.Time
}

func NewService(source Source, growthReader GrowthReader) *Service {
	return &Service{
		source:     source,
		growth:     growthReader,
		topRepos:   DefaultTopRepos,
		activeDays: DefaultActiveDays,
		now:        time.Now,
	}
}

func (s *Service) VisualizationData(ctx context.Context, cred models.Credential) (*VisualizationData, error) {
	daily, err := s.growth.Daily()
	if err != nil {
		return nil, fmt.Errorf("failed to load daily growth: %w", err)
	}
	monthly, err := s.growth.Monthly()
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly growth: %w", err)
	}

	repos, err := s.source.FetchRepos(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repositories: %w", err)
	}

	events, err := s.source.FetchEvents(ctx, cred)
	if err != nil {
		slog.Warn("Failed to fetch events", "error", err)
		events = nil
	}

	return &VisualizationData{
		FollowersDaily:         daily.Data,
		FollowersDailyGainLoss: collect(daily),
		StarsMonthly:           monthly.Data,
		StarsMonthlyGainLoss:   collect(monthly),
		TopRepos:               TopRepos(repos, s.topRepos),
		MostActiveDays:         MostActiveDays(events, s.activeDays),
		Languages:              Languages(repos),
		TotalStars:             models.TotalStars(repos),
		TotalRepos:             len(repos),
		GeneratedAt:            s.now(),
	}, nil
}

func collect(series growth.Series) []growth.Point {
	points := []growth.Point{}
	for p := range series.GainLoss() {
		points = append(points, p)
	}
	return points
}

// TopRepos returns the n most starred repos, ties broken by name.
func TopRepos(repos []models.Repo, n int) []RepoStat {
	sorted := slices.Clone(repos)
	slices.SortStableFunc(sorted, func(a, b models.Repo) int {
		if c := cmp.Compare(b.Stars, a.Stars); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	stats := make([]RepoStat, 0, min(n, len(sorted)))
	for _, r := range sorted[:min(n, len(sorted))] {
		stats = append(stats, RepoStat{
			Name:     r.Name,
			URL:      r.URL,
			Language: r.Language,
			Stars:    r.Stars,
			Forks:    r.Forks,
		})
	}
	return stats
}

// MostActiveDays counts events per local calendar date and returns the n
// busiest dates, most recent first on ties.
func MostActiveDays(events []models.Event, n int) []DayActivity {
	counts := make(map[string]int)
	for _, e := range events {
		counts[e.CreatedAt.Local().Format(constants.DailyPeriodLayout)]++
	}

	days := make([]DayActivity, 0, len(counts))
	for date, count := range counts {
		days = append(days, DayActivity{Date: date, Events: count})
	}
	slices.SortFunc(days, func(a, b DayActivity) int {
		if c := cmp.Compare(b.Events, a.Events); c != 0 {
			return c
		}
		return cmp.Compare(b.Date, a.Date)
	})
	return days[:min(n, len(days))]
}

// Languages counts repos per primary language. Repos without one are skipped.
func Languages(repos []models.Repo) []LanguageCount {
	counts := make(map[string]int)
	for _, r := range repos {
		if r.Language == "" {
			continue
		}
		counts[r.Language]++
	}

	langs := make([]LanguageCount, 0, len(counts))
	for lang, count := range counts {
		langs = append(langs, LanguageCount{Language: lang, Repos: count})
	}
	slices.SortFunc(langs, func(a, b LanguageCount) int {
		if c := cmp.Compare(b.Repos, a.Repos); c != 0 {
			return c
		}
		return cmp.Compare(a.Language, b.Language)
	})
	return langs
}
