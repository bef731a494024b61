package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/PatrickWalther/unfollow-watch-go/internal/config"
	"github.com/PatrickWalther/unfollow-watch-go/internal/metrics"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
)

const (
	sendTimeout     = 30 * time.Second
	historyRetained = 90 * 24 * time.Hour
)

var ErrNoProviders = errors.New("no notification providers connected")

// ProvidersFromConfig builds every provider enabled in cfg.
func ProvidersFromConfig(cfg config.NotificationSettings) []Provider {
	var providers []Provider
	if cfg.Desktop.Enabled {
		providers = append(providers, NewDesktopProvider(cfg.Desktop.AppID))
	}
	if cfg.Discord.Enabled {
		providers = append(providers, NewDiscordProvider(cfg.Discord.BotToken, cfg.Discord.ChannelID))
	}
	return providers
}

// Manager handles notification dispatching across multiple providers.
type Manager struct {
	providers []Provider
	active    []Provider
	repo      *Repository
	metrics   metrics.Recorder
	enabled   bool

	mu sync.RWMutex
	wg sync.WaitGroup
}

// NewManager creates a manager. repo may be nil, in which case nothing is logged.
func NewManager(providers []Provider, repo *Repository, rec metrics.Recorder) *Manager {
	if rec == nil {
		rec = metrics.Noop()
	}
	return &Manager{
		providers: providers,
		repo:      repo,
		metrics:   rec,
		enabled:   true,
	}
}

// Start connects every configured provider. Providers that fail to connect
// are left out; the others keep working.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	m.active = nil
	for _, p := range m.providers {
		if !p.IsConfigured() {
			slog.Warn("Notification provider not configured", "provider", p.Name())
			continue
		}
		if err := p.Connect(ctx); err != nil {
			slog.Error("Failed to connect notification provider", "provider", p.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		m.active = append(m.active, p)
	}

	if m.repo != nil {
		if n, err := m.repo.Prune(time.Now().Add(-historyRetained)); err != nil {
			slog.Warn("Failed to prune notification log", "error", err)
		} else if n > 0 {
			slog.Debug("Pruned notification log", "removed", n)
		}
	}

	return errors.Join(errs...)
}

// Stop waits for pending deliveries and disconnects all providers.
func (m *Manager) Stop() {
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.active {
		if err := p.Disconnect(); err != nil {
			slog.Error("Failed to disconnect notification provider", "provider", p.Name(), "error", err)
		}
	}
	m.active = nil
}

// Wait blocks until every dispatched notification has been delivered or failed.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enabled != enabled {
		slog.Info("Notifications toggled", "enabled", enabled)
	}
	m.enabled = enabled
}

func (m *Manager) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Providers returns the names of the connected providers.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.active))
	for _, p := range m.active {
		names = append(names, p.Name())
	}
	return names
}

func (m *Manager) NotifyUnfollower(ctx context.Context, f models.Follower) {
	m.dispatch(ctx, UnfollowerNotification(f))
}

func (m *Manager) NotifyAutoUnfollow(ctx context.Context, f models.Follower) {
	m.dispatch(ctx, AutoUnfollowNotification(f))
}

// SendTest delivers a test notification through every connected provider,
// regardless of the enabled flag, and reports how many succeeded.
func (m *Manager) SendTest(ctx context.Context) (int, error) {
	m.mu.RLock()
	providers := append([]Provider(nil), m.active...)
	m.mu.RUnlock()

	if len(providers) == 0 {
		return 0, ErrNoProviders
	}

	n := TestNotification()
	sent := 0
	var errs []error
	for _, p := range providers {
		if err := m.deliver(ctx, p, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		sent++
	}

	if sent == 0 {
		return 0, errors.Join(errs...)
	}
	return sent, nil
}

func (m *Manager) History(limit int) ([]LogEntry, error) {
	if m.repo == nil {
		return []LogEntry{}, nil
	}
	return m.repo.History(limit)
}

func (m *Manager) dispatch(ctx context.Context, n Notification) {
	m.mu.RLock()
	enabled := m.enabled
	providers := append([]Provider(nil), m.active...)
	m.mu.RUnlock()

	if !enabled || len(providers) == 0 {
		slog.Debug("Notification suppressed", "type", n.Type, "login", n.Login, "enabled", enabled)
		return
	}

	// Delivery outlives the detection cycle that triggered it.
	ctx = context.WithoutCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for _, p := range providers {
			if err := m.deliver(ctx, p, n); err != nil {
				slog.Error("Failed to send notification", "provider", p.Name(), "type", n.Type, "error", err)
			}
		}
	}()
}

func (m *Manager) deliver(ctx context.Context, p Provider, n Notification) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err := p.Send(sendCtx, n)

	entry := &LogEntry{
		Type:     n.Type,
		Provider: p.Name(),
		Title:    n.Title,
		Message:  n.Message,
		Login:    n.Login,
		Status:   StatusSent,
	}
	if err != nil {
		entry.Status = StatusFailed
		entry.Error = err.Error()
	}
	m.metrics.IncNotifications(p.Name(), entry.Status)

	if m.repo != nil {
		if rerr := m.repo.Record(entry); rerr != nil {
			slog.Warn("Failed to record notification", "error", rerr)
		}
	}

	return err
}
