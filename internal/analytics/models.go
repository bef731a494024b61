package analytics

import (
	"time"

	"github.com/PatrickWalther/unfollow-watch-go/internal/growth"
)

type RepoStat struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Language string `json:"language,omitempty"`
	Stars    int    `json:"stars"`
	Forks    int    `json:"forks"`
}

type DayActivity struct {
	Date   string `json:"date"`
	Events int    `json:"events"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Repos    int    `json:"repos"`
}

// VisualizationData bundles everything the charts page renders.
type VisualizationData struct {
	FollowersDaily         []growth.Point  `json:"followersDaily"`
	FollowersDailyGainLoss []growth.Point  `json:"followersDailyGainLoss"`
	StarsMonthly           []growth.Point  `json:"starsMonthly"`
	StarsMonthlyGainLoss   []growth.Point  `json:"starsMonthlyGainLoss"`
	TopRepos               []RepoStat      `json:"topRepos"`
	MostActiveDays         []DayActivity   `json:"mostActiveDays"`
	Languages              []LanguageCount `json:"languages"`
	TotalStars             int             `json:"totalStars"`
	TotalRepos             int             `json:"totalRepos"`
	GeneratedAt            time.Time       `json:"generatedAt"`
}
