package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/PatrickWalther/unfollow-watch-go/internal/analytics"
	"github.com/PatrickWalther/unfollow-watch-go/internal/api"
	"github.com/PatrickWalther/unfollow-watch-go/internal/config"
	"github.com/PatrickWalther/unfollow-watch-go/internal/database"
	"github.com/PatrickWalther/unfollow-watch-go/internal/detector"
	"github.com/PatrickWalther/unfollow-watch-go/internal/growth"
	"github.com/PatrickWalther/unfollow-watch-go/internal/metrics"
	"github.com/PatrickWalther/unfollow-watch-go/internal/notifications"
	"github.com/PatrickWalther/unfollow-watch-go/internal/scheduler"
	"github.com/PatrickWalther/unfollow-watch-go/internal/settings"
	"github.com/PatrickWalther/unfollow-watch-go/internal/store"
	"github.com/PatrickWalther/unfollow-watch-go/internal/web"
)

// ErrNotConfigured is returned by operations that need a saved credential.
var ErrNotConfigured = fmt.Errorf("%w: save a token and username first", store.ErrNoCredential)

const shutdownTimeout = 5 * time.Second

// App owns every component of the engine. It is created once at startup and
// torn down with Close.
type App struct {
	cfg *config.Config

	credentials *store.CredentialStore
	snapshots   *store.SnapshotStore
	unfollowers *store.UnfollowerStore
	settings    *settings.Store

	client        *api.GitHubClient
	detector      *detector.Detector
	growth        *growth.Tracker
	analytics     *analytics.Service
	db            *database.DB
	notifications *notifications.Manager
	metrics       metrics.Recorder
	status        *web.StatusBroadcaster
	webServer     *web.Server

	detectLoop *scheduler.Scheduler
	growthLoop *scheduler.Scheduler

	lastResult           *detector.Result
	notificationsStarted bool
	running              bool
	closeOnce            sync.Once

	mu sync.RWMutex
}

func New(cfg *config.Config) (*App, error) {
	var rec metrics.Recorder = metrics.Noop()
	if cfg.Metrics.Enabled {
		rec = metrics.New()
	}

	db, err := database.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	repo, err := notifications.NewRepository(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	cache := api.NewCache(cfg.GitHub.CacheSizeMB, cfg.GitHub.CacheTTLSeconds)
	client := api.NewGitHubClient(cfg.GitHub, cache, rec)

	a := &App{
		cfg:           cfg,
		credentials:   store.NewCredentialStore(cfg.DataDir),
		snapshots:     store.NewSnapshotStore(cfg.DataDir),
		unfollowers:   store.NewUnfollowerStore(cfg.DataDir),
		settings:      settings.NewStore(cfg.DataDir),
		client:        client,
		db:            db,
		notifications: notifications.NewManager(notifications.ProvidersFromConfig(cfg.Notifications), repo, rec),
		metrics:       rec,
		status:        web.NewStatusBroadcaster(),
		detectLoop:    scheduler.New("detect", rec),
		growthLoop:    scheduler.New("growth", rec),
	}

	a.detector = detector.New(client, a.snapshots, a.unfollowers, a.notifications, rec)
	a.growth = growth.NewTracker(cfg.DataDir, client, rec)
	a.analytics = analytics.NewService(client, a.growth)

	if cfg.Web.Enabled {
		var metricsHandler http.Handler
		if cfg.Metrics.Enabled {
			metricsHandler = rec.Handler()
		}
		a.webServer = web.NewServer(cfg.Web, a, a.status, metricsHandler)
	}

	return a, nil
}

// Run starts the schedulers, notifications and web server and blocks until
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return errors.New("already running")
	}
	a.running = true
	a.mu.Unlock()

	slog.Info("Starting unfollow watcher", "dataDir", a.cfg.DataDir)

	a.ensureNotifications(ctx)

	current := a.currentSettings()
	a.notifications.SetEnabled(current.NotificationsEnabled)

	if a.webServer != nil {
		if err := a.webServer.Start(); err != nil {
			return err
		}
	}

	interval := time.Duration(current.RefreshIntervalMinutes) * time.Minute
	if err := a.detectLoop.Start(ctx, interval, a.detectTask); err != nil {
		return fmt.Errorf("failed to start detection: %w", err)
	}

	growthInterval := time.Duration(a.cfg.Growth.IntervalHours) * time.Hour
	if err := a.growthLoop.Start(ctx, growthInterval, a.growthTask); err != nil {
		return fmt.Errorf("failed to start growth tracking: %w", err)
	}

	<-ctx.Done()
	slog.Info("Shutting down...")
	return nil
}

// Close stops every component in reverse start order. It is safe to call
// more than once.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.detectLoop.Stop()
		a.growthLoop.Stop()

		if a.webServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			a.webServer.Stop(ctx)
			cancel()
		}

		a.notifications.Stop()

		if a.db != nil {
			err = a.db.Close()
		}

		a.printSessionReport()
	})
	return err
}

func (a *App) Status() *web.StatusBroadcaster {
	return a.status
}

// LastResult returns the most recent completed detection cycle, if any.
func (a *App) LastResult() (detector.Result, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.lastResult == nil {
		return detector.Result{}, false
	}
	return *a.lastResult, true
}

func (a *App) ensureNotifications(ctx context.Context) {
	a.mu.Lock()
	if a.notificationsStarted {
		a.mu.Unlock()
		return
	}
	a.notificationsStarted = true
	a.mu.Unlock()

	if err := a.notifications.Start(ctx); err != nil {
		slog.Error("Failed to start notification manager", "error", err)
	}
}

// currentSettings reads the persisted settings, falling back to defaults.
func (a *App) currentSettings() settings.Settings {
	current, err := a.settings.Load()
	if err != nil {
		slog.Error("Failed to load settings, using defaults", "error", err)
		return settings.Defaults()
	}
	return current
}

func (a *App) detectTask(ctx context.Context) error {
	_, err := a.runDetection(ctx)
	return err
}

// runDetection performs one cycle. Settings are read once per cycle.
func (a *App) runDetection(ctx context.Context) (detector.Result, error) {
	cred, err := a.credentials.Load()
	if err != nil && !errors.Is(err, store.ErrNoCredential) {
		a.status.SetStatus(web.StatusError, err.Error())
		return detector.Result{}, fmt.Errorf("failed to load credential: %w", err)
	}

	current := a.currentSettings()
	a.notifications.SetEnabled(current.NotificationsEnabled)

	a.status.SetStatus(web.StatusChecking, "Checking followers")
	result, err := a.detector.Detect(ctx, cred, detector.Options{AutoUnfollow: current.AutoUnfollow})
	if err != nil {
		a.status.SetStatus(web.StatusError, err.Error())
		return result, err
	}

	a.mu.Lock()
	a.lastResult = &result
	a.mu.Unlock()

	a.status.SetCycle(result)
	return result, nil
}

func (a *App) growthTask(ctx context.Context) error {
	cred, err := a.credentials.Load()
	if errors.Is(err, store.ErrNoCredential) {
		slog.Debug("Growth tracking skipped, no credential")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	return a.growth.Record(ctx, cred)
}

// applySettings pushes a settings change into the running components.
func (a *App) applySettings(previous, current settings.Settings) {
	if previous.RefreshIntervalMinutes != current.RefreshIntervalMinutes {
		interval := time.Duration(current.RefreshIntervalMinutes) * time.Minute
		err := a.detectLoop.Reconfigure(interval)
		if err != nil && !errors.Is(err, scheduler.ErrNotStarted) {
			slog.Error("Failed to reconfigure detection interval", "error", err)
		}
	}

	a.notifications.SetEnabled(current.NotificationsEnabled)
}

func (a *App) printSessionReport() {
	result, ok := a.LastResult()
	if !ok {
		return
	}
	slog.Info("=== Session Report ===")
	slog.Info("Last detection cycle",
		"cycle", result.CycleID,
		"checkedAt", result.CheckedAt.Format(time.RFC3339),
		"followers", result.Followers,
		"unfollowers", len(result.Unfollowers),
	)
}
