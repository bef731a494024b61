package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
)

// Filter returns items whose key contains query, in their original order,
// followed by the remaining fuzzy matches ranked by score. An empty query
// returns every item. A limit of 0 means no limit.
func Filter[T any](items []T, query string, key func(T) string, limit int) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return applyLimit(items, limit)
	}

	keys := make([]string, len(items))
	direct := make([]T, 0)
	matched := make(map[int]struct{})
	for i, item := range items {
		keys[i] = strings.ToLower(key(item))
		if strings.Contains(keys[i], query) {
			direct = append(direct, item)
			matched[i] = struct{}{}
		}
	}

	matches := fuzzy.Find(query, keys)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Index < matches[j].Index
		}
		return matches[i].Score > matches[j].Score
	})

	results := direct
	for _, m := range matches {
		if _, ok := matched[m.Index]; ok {
			continue
		}
		results = append(results, items[m.Index])
	}

	return applyLimit(results, limit)
}

func Followers(items []models.FollowerStatus, query string, limit int) []models.FollowerStatus {
	return Filter(items, query, func(f models.FollowerStatus) string { return f.Login }, limit)
}

func applyLimit[T any](items []T, limit int) []T {
	if limit <= 0 {
		return items
	}
	return items[:min(limit, len(items))]
}
