package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gookit/validate"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
)

const EnvPrefix = "UNFOLLOW_WATCH"

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"data-dir":  "dataDir",
	"log-level": "logger.consoleLevel",
	"host":      "web.host",
	"port":      "web.port",
}

// ConfigPaths returns the directories searched for config.yaml, in priority order.
func ConfigPaths() []string {
	var paths []string
	paths = append(paths, ".")
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", constants.AppName))
	}
	paths = append(paths, DefaultDataDir())
	return paths
}

// Load builds the configuration from defaults, an optional config file,
// UNFOLLOW_WATCH_* environment variables and flags, in increasing priority.
// A missing config file is not an error.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		for _, p := range ConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("No config file found, using defaults")
	} else {
		slog.Debug("Loaded config file", "path", v.ConfigFileUsed())
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if flags != nil {
		if noWeb, err := flags.GetBool("no-web"); err == nil && noWeb {
			cfg.Web.Enabled = false
		}
	}

	cfg.Logger.ConsoleLevel = strings.ToUpper(cfg.Logger.ConsoleLevel)
	cfg.Logger.FileLevel = strings.ToUpper(cfg.Logger.FileLevel)

	clamp(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("dataDir", cfg.DataDir)

	v.SetDefault("logger.save", cfg.Logger.Save)
	v.SetDefault("logger.consoleLevel", cfg.Logger.ConsoleLevel)
	v.SetDefault("logger.fileLevel", cfg.Logger.FileLevel)
	v.SetDefault("logger.autoClear", cfg.Logger.AutoClear)

	v.SetDefault("github.apiUrl", cfg.GitHub.APIURL)
	v.SetDefault("github.timeoutSeconds", cfg.GitHub.TimeoutSeconds)
	v.SetDefault("github.perPage", cfg.GitHub.PerPage)
	v.SetDefault("github.maxPages", cfg.GitHub.MaxPages)
	v.SetDefault("github.cacheSizeMb", cfg.GitHub.CacheSizeMB)
	v.SetDefault("github.cacheTtlSeconds", cfg.GitHub.CacheTTLSeconds)

	v.SetDefault("web.enabled", cfg.Web.Enabled)
	v.SetDefault("web.host", cfg.Web.Host)
	v.SetDefault("web.port", cfg.Web.Port)

	v.SetDefault("notifications.desktop.enabled", cfg.Notifications.Desktop.Enabled)
	v.SetDefault("notifications.desktop.appId", cfg.Notifications.Desktop.AppID)
	v.SetDefault("notifications.discord.enabled", cfg.Notifications.Discord.Enabled)
	v.SetDefault("notifications.discord.botToken", cfg.Notifications.Discord.BotToken)
	v.SetDefault("notifications.discord.channelId", cfg.Notifications.Discord.ChannelID)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("growth.intervalHours", cfg.Growth.IntervalHours)
}

func clamp(cfg *Config) {
	if cfg.GitHub.TimeoutSeconds < 5 {
		cfg.GitHub.TimeoutSeconds = 5
	} else if cfg.GitHub.TimeoutSeconds > 120 {
		cfg.GitHub.TimeoutSeconds = 120
	}

	if cfg.GitHub.PerPage < 1 {
		cfg.GitHub.PerPage = 1
	} else if cfg.GitHub.PerPage > constants.FollowersPerPage {
		cfg.GitHub.PerPage = constants.FollowersPerPage
	}

	if cfg.GitHub.MaxPages < 1 {
		cfg.GitHub.MaxPages = constants.MaxPages
	}

	if cfg.GitHub.CacheSizeMB < 0 {
		cfg.GitHub.CacheSizeMB = 0
	}

	if cfg.GitHub.CacheTTLSeconds < 0 {
		cfg.GitHub.CacheTTLSeconds = 0
	}

	if cfg.Growth.IntervalHours < 1 {
		cfg.Growth.IntervalHours = 1
	} else if cfg.Growth.IntervalHours > 168 {
		cfg.Growth.IntervalHours = 168
	}
}

// Validate checks the required fields of every section.
func Validate(cfg *Config) error {
	sections := []struct {
		name  string
		value any
	}{
		{"config", cfg},
		{"logger", &cfg.Logger},
		{"github", &cfg.GitHub},
		{"web", &cfg.Web},
	}

	for _, s := range sections {
		v := validate.Struct(s.value)
		if !v.Validate() {
			return fmt.Errorf("invalid %s configuration: %s", s.name, v.Errors.One())
		}
	}

	if cfg.Notifications.Discord.Enabled {
		if cfg.Notifications.Discord.BotToken == "" || cfg.Notifications.Discord.ChannelID == "" {
			return fmt.Errorf("invalid notifications configuration: discord requires botToken and channelId")
		}
	}

	return nil
}

const sampleHeader = `# unfollow-watch configuration file
# Generated automatically - customize as needed
#
# Every key can also be set through the environment, e.g. UNFOLLOW_WATCH_WEB_PORT=5051.
# The dashboard API can be protected with DASHBOARD_USERNAME / DASHBOARD_PASSWORD.
# User settings (refresh interval, theme...) live in settings.json inside dataDir.
#

`

// WriteSample writes the default configuration as a commented YAML file.
func WriteSample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s", path)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, err)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleHeader+string(data)), 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
