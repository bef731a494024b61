package constants

const (
	GitHubAPIURL     = "https://api.github.com"
	GitHubURL        = "https://github.com"
	GitHubAccept     = "application/vnd.github+json"
	GitHubAPIVersion = "2022-11-28"

	// FollowersPerPage is the page size requested from paginated endpoints.
	// GitHub caps per_page at 100.
	FollowersPerPage = 100
	MaxPages         = 100

	DefaultRefreshIntervalMinutes = 5
	DefaultGrowthIntervalHours    = 24

	AppName  = "unfollow-watch"
	AppTitle = "Unfollow Watch"
	AppID    = "io.github.unfollowwatch"
)

// Persisted file names, relative to the data directory.
const (
	CredentialFile     = "token.json"
	UnfollowersFile    = "unfollowers.json"
	SettingsFile       = "settings.json"
	DailyFollowersFile = "growth_followers_daily.json"
	MonthlyStarsFile   = "growth_stars_monthly.json"
	SnapshotFilePrefix = "followers_"
	DatabaseFile       = "unfollow-watch.db"
	LogsDir            = "logs"
)

// Growth series period layouts.
const (
	DailyPeriodLayout   = "2006-01-02"
	MonthlyPeriodLayout = "2006-01"
)
