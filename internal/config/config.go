package config

import (
	"os"
	"path/filepath"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
)

type Config struct {
	DataDir       string               `mapstructure:"dataDir" yaml:"dataDir" validate:"required"`
	Logger        LoggerSettings       `mapstructure:"logger" yaml:"logger"`
	GitHub        GitHubSettings       `mapstructure:"github" yaml:"github"`
	Web           WebSettings          `mapstructure:"web" yaml:"web"`
	Notifications NotificationSettings `mapstructure:"notifications" yaml:"notifications"`
	Metrics       MetricsSettings      `mapstructure:"metrics" yaml:"metrics"`
	Growth        GrowthSettings       `mapstructure:"growth" yaml:"growth"`
}

type LoggerSettings struct {
	Save         bool   `mapstructure:"save" yaml:"save"`
	ConsoleLevel string `mapstructure:"consoleLevel" yaml:"consoleLevel" validate:"required|in:DEBUG,INFO,WARN,WARNING,ERROR"`
	FileLevel    string `mapstructure:"fileLevel" yaml:"fileLevel" validate:"required|in:DEBUG,INFO,WARN,WARNING,ERROR"`
	AutoClear    bool   `mapstructure:"autoClear" yaml:"autoClear"`
}

type GitHubSettings struct {
	APIURL          string `mapstructure:"apiUrl" yaml:"apiUrl" validate:"required|url"`
	TimeoutSeconds  int    `mapstructure:"timeoutSeconds" yaml:"timeoutSeconds"`
	PerPage         int    `mapstructure:"perPage" yaml:"perPage"`
	MaxPages        int    `mapstructure:"maxPages" yaml:"maxPages"`
	CacheSizeMB     int    `mapstructure:"cacheSizeMb" yaml:"cacheSizeMb"`
	CacheTTLSeconds int    `mapstructure:"cacheTtlSeconds" yaml:"cacheTtlSeconds"`
}

type WebSettings struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host" validate:"required"`
	Port    int    `mapstructure:"port" yaml:"port" validate:"required|min:1|max:65535"`
}

type NotificationSettings struct {
	Desktop DesktopSettings `mapstructure:"desktop" yaml:"desktop"`
	Discord DiscordSettings `mapstructure:"discord" yaml:"discord"`
}

type DesktopSettings struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	AppID   string `mapstructure:"appId" yaml:"appId"`
}

type DiscordSettings struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	BotToken  string `mapstructure:"botToken" yaml:"botToken"`
	ChannelID string `mapstructure:"channelId" yaml:"channelId"`
}

type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

type GrowthSettings struct {
	IntervalHours int `mapstructure:"intervalHours" yaml:"intervalHours"`
}

func DefaultConfig() Config {
	return Config{
		DataDir:       DefaultDataDir(),
		Logger:        DefaultLoggerSettings(),
		GitHub:        DefaultGitHubSettings(),
		Web:           DefaultWebSettings(),
		Notifications: DefaultNotificationSettings(),
		Metrics:       MetricsSettings{Enabled: true},
		Growth:        GrowthSettings{IntervalHours: constants.DefaultGrowthIntervalHours},
	}
}

func DefaultLoggerSettings() LoggerSettings {
	return LoggerSettings{
		Save:         true,
		ConsoleLevel: "INFO",
		FileLevel:    "DEBUG",
		AutoClear:    true,
	}
}

func DefaultGitHubSettings() GitHubSettings {
	return GitHubSettings{
		APIURL:          constants.GitHubAPIURL,
		TimeoutSeconds:  30,
		PerPage:         constants.FollowersPerPage,
		MaxPages:        constants.MaxPages,
		CacheSizeMB:     8,
		CacheTTLSeconds: 300,
	}
}

func DefaultWebSettings() WebSettings {
	return WebSettings{
		Enabled: true,
		Host:    "127.0.0.1",
		Port:    5050,
	}
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Desktop: DesktopSettings{
			Enabled: true,
			AppID:   constants.AppID,
		},
		Discord: DiscordSettings{
			Enabled: false,
		},
	}
}

// DefaultDataDir is the per-user directory holding every persisted file.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, constants.AppName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "."+constants.AppName)
	}
	return constants.AppName
}
