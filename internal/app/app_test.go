package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrickWalther/unfollow-watch-go/internal/config"
	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
	"github.com/PatrickWalther/unfollow-watch-go/internal/detector"
	"github.com/PatrickWalther/unfollow-watch-go/internal/metrics"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
	"github.com/PatrickWalther/unfollow-watch-go/internal/notifications"
	"github.com/PatrickWalther/unfollow-watch-go/internal/settings"
	"github.com/PatrickWalther/unfollow-watch-go/internal/store"
)

type ghUser struct {
	Login   string `json:"login"`
	HTMLURL string `json:"html_url"`
}

type ghRepo struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Stars    int    `json:"stargazers_count"`
}

// fakeGitHub serves the handful of endpoints the engine uses.
type fakeGitHub struct {
	mu        sync.Mutex
	followers []string
	following []string
	repos     []ghRepo
	mutations []string
}

func (f *fakeGitHub) setFollowers(logins ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followers = logins
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer secret" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
		return
	}

	toUsers := func(logins []string) []ghUser {
		out := make([]ghUser, 0, len(logins))
		for _, l := range logins {
			out = append(out, ghUser{Login: l, HTMLURL: "https://github.com/" + l})
		}
		return out
	}

	var body any
	switch {
	case r.URL.Path == "/user":
		body = ghUser{Login: "octocat"}
	case r.URL.Path == "/users/octocat":
		body = map[string]any{"login": "octocat", "name": "The Octocat", "public_repos": len(f.repos), "followers": len(f.followers)}
	case r.URL.Path == "/users/octocat/followers":
		body = toUsers(f.followers)
	case r.URL.Path == "/users/octocat/following":
		body = toUsers(f.following)
	case r.URL.Path == "/users/octocat/repos":
		body = f.repos
	case r.URL.Path == "/users/octocat/events":
		body = []any{}
	case strings.HasPrefix(r.URL.Path, "/user/following/"):
		f.mutations = append(f.mutations, r.Method+" "+strings.TrimPrefix(r.URL.Path, "/user/following/"))
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func newTestApp(t *testing.T, gh *fakeGitHub) *App {
	t.Helper()

	srv := httptest.NewServer(gh)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.GitHub.APIURL = srv.URL
	cfg.GitHub.CacheSizeMB = 0
	cfg.Web.Enabled = false
	cfg.Metrics.Enabled = false
	cfg.Notifications.Desktop.Enabled = false

	a, err := New(&cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func login(t *testing.T, a *App) {
	t.Helper()
	require.NoError(t, a.SaveCredential(" secret ", "octocat"))
}

func TestCredentialLifecycle(t *testing.T) {
	a := newTestApp(t, &fakeGitHub{})

	ok, username := a.CheckCredential()
	assert.False(t, ok)
	assert.Empty(t, username)

	assert.Error(t, a.SaveCredential("", "octocat"))

	login(t, a)
	ok, username = a.CheckCredential()
	assert.True(t, ok)
	assert.Equal(t, "octocat", username)
}

func TestOperationsRequireCredential(t *testing.T) {
	a := newTestApp(t, &fakeGitHub{})
	ctx := context.Background()

	_, err := a.FetchFollowers(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, err, store.ErrNoCredential)

	_, err = a.FetchFollowing(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = a.FetchUserDetails(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = a.GetVisualizationData(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, a.Follow(ctx, "someone"), ErrNotConfigured)
	assert.ErrorIs(t, a.Unfollow(ctx, "someone"), ErrNotConfigured)
}

func TestRefreshWithoutCredentialIsQuiescent(t *testing.T) {
	a := newTestApp(t, &fakeGitHub{})

	result, ran, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, result.Quiescent)

	count, err := a.GetUnfollowersCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRefreshDetectsUnfollowers(t *testing.T) {
	gh := &fakeGitHub{}
	gh.setFollowers("alice", "bob", "carol")
	a := newTestApp(t, gh)
	login(t, a)
	ctx := context.Background()

	first, ran, err := a.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, ran)
	assert.True(t, first.FirstRun)
	assert.Empty(t, first.Unfollowers)

	gh.setFollowers("Alice", "carol")
	second, ran, err := a.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, ran)
	assert.False(t, second.FirstRun)
	require.Len(t, second.Unfollowers, 1)
	assert.Equal(t, "bob", second.Unfollowers[0].Login)

	rec, err := a.GetUnfollowers()
	require.NoError(t, err)
	require.Len(t, rec.Unfollowers, 1)
	assert.Equal(t, "bob", rec.Unfollowers[0].Login)

	count, err := a.GetUnfollowersCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	last, ok := a.LastResult()
	require.True(t, ok)
	assert.Equal(t, second.CycleID, last.CycleID)
	assert.Equal(t, second.CycleID, a.Status().GetStatus().LastCycle.CycleID)
}

func TestAutoUnfollowFollowsSettings(t *testing.T) {
	gh := &fakeGitHub{following: []string{"bob"}}
	gh.setFollowers("alice", "bob")
	a := newTestApp(t, gh)
	login(t, a)
	ctx := context.Background()

	enabled := true
	_, err := a.SaveSettings(settings.Patch{AutoUnfollow: &enabled})
	require.NoError(t, err)

	_, _, err = a.Refresh(ctx)
	require.NoError(t, err)

	gh.setFollowers("alice")
	result, _, err := a.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, result.AutoUnfollowed)

	gh.mu.Lock()
	defer gh.mu.Unlock()
	assert.Equal(t, []string{"DELETE bob"}, gh.mutations)
}

func TestFetchFollowersMarksFollowBack(t *testing.T) {
	gh := &fakeGitHub{following: []string{"ALICE"}}
	gh.setFollowers("alice", "bob")
	a := newTestApp(t, gh)
	login(t, a)

	got, err := a.FetchFollowers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].FollowsBack)
	assert.False(t, got[1].FollowsBack)

	found, err := a.SearchFollowers(context.Background(), "bo")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "bob", found[0].Login)
}

func TestFetchUserDetailsSumsStars(t *testing.T) {
	gh := &fakeGitHub{repos: []ghRepo{{Name: "a", Stars: 3}, {Name: "b", Stars: 4}}}
	a := newTestApp(t, gh)
	login(t, a)

	user, err := a.FetchUserDetails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", user.Login)
	assert.Equal(t, 7, user.TotalStars)
}

func TestFollowAndUnfollow(t *testing.T) {
	gh := &fakeGitHub{}
	a := newTestApp(t, gh)
	login(t, a)
	ctx := context.Background()

	require.NoError(t, a.Follow(ctx, "alice"))
	require.NoError(t, a.Unfollow(ctx, "alice"))

	gh.mu.Lock()
	defer gh.mu.Unlock()
	assert.Equal(t, []string{"PUT alice", "DELETE alice"}, gh.mutations)
}

func TestVerifyCredential(t *testing.T) {
	a := newTestApp(t, &fakeGitHub{})
	ctx := context.Background()

	assert.NoError(t, a.VerifyCredential(ctx, models.Credential{Token: "secret", Username: "OctoCat"}))
	assert.Error(t, a.VerifyCredential(ctx, models.Credential{Token: "secret", Username: "someone"}))
	assert.Error(t, a.VerifyCredential(ctx, models.Credential{Token: "wrong", Username: "octocat"}))
}

func TestSaveSettingsAppliesToRunningComponents(t *testing.T) {
	gh := &fakeGitHub{}
	a := newTestApp(t, gh)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.DetectionInterval() == 5*time.Minute
	}, 2*time.Second, 10*time.Millisecond)

	interval := 15
	off := false
	current, err := a.SaveSettings(settings.Patch{RefreshIntervalMinutes: &interval, NotificationsEnabled: &off})
	require.NoError(t, err)
	assert.Equal(t, 15, current.RefreshIntervalMinutes)
	assert.Equal(t, 15*time.Minute, a.DetectionInterval())
	assert.False(t, a.NotificationsEnabled())

	reset, err := a.ResetSettings()
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), reset)
	assert.Equal(t, 5*time.Minute, a.DetectionInterval())
	assert.True(t, a.NotificationsEnabled())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSaveSettingsRejectsInvalid(t *testing.T) {
	a := newTestApp(t, &fakeGitHub{})

	zero := 0
	_, err := a.SaveSettings(settings.Patch{RefreshIntervalMinutes: &zero})
	assert.ErrorIs(t, err, settings.ErrInvalid)

	loaded, err := a.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), loaded)
}

func TestNotificationHistoryAndTest(t *testing.T) {
	a := newTestApp(t, &fakeGitHub{})

	history, err := a.NotificationHistory(10)
	require.NoError(t, err)
	assert.Empty(t, history)

	sent, err := a.TestNotification(context.Background())
	assert.Error(t, err)
	assert.Zero(t, sent)
}

func TestCloseIsIdempotent(t *testing.T) {
	a := newTestApp(t, &fakeGitHub{})
	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}

type countingProvider struct {
	sent atomic.Int32
}

func (p *countingProvider) Name() string                  { return "counting" }
func (p *countingProvider) IsConfigured() bool            { return true }
func (p *countingProvider) Connect(context.Context) error { return nil }
func (p *countingProvider) Disconnect() error             { return nil }
func (p *countingProvider) Send(context.Context, notifications.Notification) error {
	p.sent.Add(1)
	return nil
}

// useProvider routes the app's notifications through p only.
func useProvider(a *App, p notifications.Provider) *notifications.Manager {
	mgr := notifications.NewManager([]notifications.Provider{p}, nil, metrics.Noop())
	a.notifications = mgr
	a.detector = detector.New(a.client, a.snapshots, a.unfollowers, mgr, metrics.Noop())
	return mgr
}

func TestRefreshHonoursStoredNotificationsSetting(t *testing.T) {
	gh := &fakeGitHub{}
	gh.setFollowers("alice", "bob")
	a := newTestApp(t, gh)
	login(t, a)

	require.NoError(t, os.WriteFile(
		filepath.Join(a.cfg.DataDir, constants.SettingsFile),
		[]byte(`{"notificationsEnabled":false}`), 0644))

	provider := &countingProvider{}
	mgr := useProvider(a, provider)
	ctx := context.Background()

	_, _, err := a.Refresh(ctx)
	require.NoError(t, err)

	gh.setFollowers("alice")
	result, _, err := a.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, result.Unfollowers, 1)

	mgr.Wait()
	assert.False(t, a.NotificationsEnabled())
	assert.Zero(t, provider.sent.Load())
}

func TestRefreshNotifiesWhenEnabled(t *testing.T) {
	gh := &fakeGitHub{}
	gh.setFollowers("alice", "bob")
	a := newTestApp(t, gh)
	login(t, a)

	provider := &countingProvider{}
	mgr := useProvider(a, provider)
	ctx := context.Background()

	_, _, err := a.Refresh(ctx)
	require.NoError(t, err)

	gh.setFollowers("alice")
	_, _, err = a.Refresh(ctx)
	require.NoError(t, err)

	mgr.Wait()
	assert.Equal(t, int32(1), provider.sent.Load())
}
