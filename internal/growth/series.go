package growth

import (
	"errors"
	"iter"
	"log/slog"
	"sync"

	"github.com/PatrickWalther/unfollow-watch-go/internal/store"
)

type Point struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// Series holds at most one point per period, in insertion order.
type Series struct {
	Data []Point `json:"data"`
}

// Upsert sets the count for period, appending a new point only when the
// period is not present yet.
func (s *Series) Upsert(period string, count int) {
	for i := range s.Data {
		if s.Data[i].Period == period {
			s.Data[i].Count = count
			return
		}
	}
	s.Data = append(s.Data, Point{Period: period, Count: count})
}

func (s Series) Latest() (Point, bool) {
	if len(s.Data) == 0 {
		return Point{}, false
	}
	return s.Data[len(s.Data)-1], true
}

// GainLoss yields the difference to the previous point for every point after
// the first, keyed by that point's period.
func (s Series) GainLoss() iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for i := 1; i < len(s.Data); i++ {
			p := Point{Period: s.Data[i].Period, Count: s.Data[i].Count - s.Data[i-1].Count}
			if !yield(p) {
				return
			}
		}
	}
}

type SeriesStore struct {
	path string
	mu   sync.RWMutex
}

func NewSeriesStore(path string) *SeriesStore {
	return &SeriesStore{path: path}
}

func (s *SeriesStore) Path() string {
	return s.path
}

// Load returns an empty series when the file is missing or malformed.
func (s *SeriesStore) Load() (Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var series Series
	if _, err := store.ReadJSON(s.path, &series); err != nil {
		if !errors.Is(err, store.ErrMalformed) {
			return Series{}, err
		}
		slog.Warn("Growth series is malformed, starting empty", "path", s.path, "error", err)
		series = Series{}
	}
	if series.Data == nil {
		series.Data = []Point{}
	}
	return series, nil
}

func (s *SeriesStore) Save(series Series) error {
	if series.Data == nil {
		series.Data = []Point{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return store.WriteJSON(s.path, series, 0644)
}

// Update loads the series, applies fn and writes the result back.
func (s *SeriesStore) Update(fn func(*Series)) (Series, error) {
	series, err := s.Load()
	if err != nil {
		return Series{}, err
	}
	fn(&series)
	if err := s.Save(series); err != nil {
		return Series{}, err
	}
	return series, nil
}
