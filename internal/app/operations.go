package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PatrickWalther/unfollow-watch-go/internal/analytics"
	"github.com/PatrickWalther/unfollow-watch-go/internal/detector"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
	"github.com/PatrickWalther/unfollow-watch-go/internal/notifications"
	"github.com/PatrickWalther/unfollow-watch-go/internal/search"
	"github.com/PatrickWalther/unfollow-watch-go/internal/settings"
	"github.com/PatrickWalther/unfollow-watch-go/internal/store"
)

// CheckCredential reports whether a usable credential is saved and, if so,
// the username it belongs to.
func (a *App) CheckCredential() (bool, string) {
	cred, err := a.credentials.Load()
	if err != nil {
		return false, ""
	}
	return true, cred.Username
}

func (a *App) SaveCredential(token, username string) error {
	cred := models.Credential{
		Token:    strings.TrimSpace(token),
		Username: strings.TrimSpace(username),
	}
	if err := a.credentials.Save(cred); err != nil {
		return err
	}
	slog.Info("Credential saved", "username", cred.Username)
	return nil
}

// VerifyCredential checks the token against the API and that it belongs to
// the given username.
func (a *App) VerifyCredential(ctx context.Context, cred models.Credential) error {
	login, err := a.client.AuthenticatedLogin(ctx, cred)
	if err != nil {
		return err
	}
	if !strings.EqualFold(login, cred.Username) {
		return fmt.Errorf("token belongs to %q, not %q", login, cred.Username)
	}
	return nil
}

func (a *App) requireCredential() (models.Credential, error) {
	cred, err := a.credentials.Load()
	if errors.Is(err, store.ErrNoCredential) {
		return cred, ErrNotConfigured
	}
	return cred, err
}

// FetchFollowers returns the live follower list, each entry flagged with
// whether the user follows them back.
func (a *App) FetchFollowers(ctx context.Context) ([]models.FollowerStatus, error) {
	cred, err := a.requireCredential()
	if err != nil {
		return nil, err
	}

	followers, err := a.client.FetchFollowers(ctx, cred)
	if err != nil {
		return nil, err
	}
	following, err := a.client.FetchFollowing(ctx, cred)
	if err != nil {
		return nil, err
	}
	return models.WithFollowBack(followers, following), nil
}

func (a *App) SearchFollowers(ctx context.Context, query string) ([]models.FollowerStatus, error) {
	followers, err := a.FetchFollowers(ctx)
	if err != nil {
		return nil, err
	}
	return search.Followers(followers, query, 0), nil
}

func (a *App) FetchFollowing(ctx context.Context) ([]models.Follower, error) {
	cred, err := a.requireCredential()
	if err != nil {
		return nil, err
	}
	return a.client.FetchFollowing(ctx, cred)
}

func (a *App) FetchUserDetails(ctx context.Context) (models.UserDetails, error) {
	cred, err := a.requireCredential()
	if err != nil {
		return models.UserDetails{}, err
	}

	user, err := a.client.FetchUser(ctx, cred)
	if err != nil {
		return models.UserDetails{}, err
	}
	repos, err := a.client.FetchRepos(ctx, cred)
	if err != nil {
		return models.UserDetails{}, err
	}
	user.TotalStars = models.TotalStars(repos)
	return user, nil
}

// GetUnfollowers returns the most recently persisted unfollower record. A
// damaged file reads as empty.
func (a *App) GetUnfollowers() (models.UnfollowerRecord, error) {
	rec, err := a.unfollowers.Load()
	if errors.Is(err, store.ErrMalformed) {
		slog.Warn("Unfollower record unreadable, treating as empty", "error", err)
		return rec, nil
	}
	return rec, err
}

func (a *App) GetUnfollowersCount() (int, error) {
	rec, err := a.GetUnfollowers()
	if err != nil {
		return 0, err
	}
	return len(rec.Unfollowers), nil
}

func (a *App) Follow(ctx context.Context, login string) error {
	cred, err := a.requireCredential()
	if err != nil {
		return err
	}
	return a.client.Follow(ctx, cred, login)
}

func (a *App) Unfollow(ctx context.Context, login string) error {
	cred, err := a.requireCredential()
	if err != nil {
		return err
	}
	return a.client.Unfollow(ctx, cred, login)
}

func (a *App) LoadSettings() (settings.Settings, error) {
	return a.settings.Load()
}

// SaveSettings merges the patch, persists it and applies it to the running
// components.
func (a *App) SaveSettings(patch settings.Patch) (settings.Settings, error) {
	previous, current, err := a.settings.Save(patch)
	if err != nil {
		return previous, err
	}
	a.applySettings(previous, current)
	return current, nil
}

func (a *App) ResetSettings() (settings.Settings, error) {
	previous, current, err := a.settings.Reset()
	if err != nil {
		return previous, err
	}
	a.applySettings(previous, current)
	return current, nil
}

func (a *App) GetVisualizationData(ctx context.Context) (*analytics.VisualizationData, error) {
	cred, err := a.requireCredential()
	if err != nil {
		return nil, err
	}
	return a.analytics.VisualizationData(ctx, cred)
}

// Refresh runs a detection cycle now. It reports false without running when
// a cycle is already in flight.
func (a *App) Refresh(ctx context.Context) (detector.Result, bool, error) {
	a.ensureNotifications(ctx)

	var result detector.Result
	ran, err := a.detectLoop.Exclusive(ctx, func(ctx context.Context) error {
		var err error
		result, err = a.runDetection(ctx)
		return err
	})
	return result, ran, err
}

func (a *App) NotificationHistory(limit int) ([]notifications.LogEntry, error) {
	return a.notifications.History(limit)
}

func (a *App) TestNotification(ctx context.Context) (int, error) {
	a.ensureNotifications(ctx)
	return a.notifications.SendTest(ctx)
}

// NotificationsEnabled mirrors the Notification Sink's enabled flag.
func (a *App) NotificationsEnabled() bool {
	return a.notifications.IsEnabled()
}

// DetectionInterval is the interval the detection scheduler is currently
// armed with, or zero when it is not running.
func (a *App) DetectionInterval() time.Duration {
	return a.detectLoop.Interval()
}
