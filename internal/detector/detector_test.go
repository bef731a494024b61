package detector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
	"github.com/PatrickWalther/unfollow-watch-go/internal/store"
)

type fakeGateway struct {
	mu         sync.Mutex
	followers  []models.Follower
	following  []models.Follower
	err        error
	unfollowed []string
	unfollowFn func(login string) error
}

func (g *fakeGateway) FetchFollowers(_ context.Context, _ models.Credential) ([]models.Follower, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return append([]models.Follower(nil), g.followers...), nil
}

func (g *fakeGateway) FetchFollowing(_ context.Context, _ models.Credential) ([]models.Follower, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.Follower(nil), g.following...), nil
}

func (g *fakeGateway) Unfollow(_ context.Context, _ models.Credential, login string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unfollowFn != nil {
		if err := g.unfollowFn(login); err != nil {
			return err
		}
	}
	g.unfollowed = append(g.unfollowed, login)
	return nil
}

type fakeNotifier struct {
	mu          sync.Mutex
	unfollowers []string
	auto        []string
}

func (n *fakeNotifier) NotifyUnfollower(_ context.Context, f models.Follower) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unfollowers = append(n.unfollowers, f.Login)
}

func (n *fakeNotifier) NotifyAutoUnfollow(_ context.Context, f models.Follower) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.auto = append(n.auto, f.Login)
}

type fixture struct {
	dir         string
	gateway     *fakeGateway
	notifier    *fakeNotifier
	snapshots   *store.SnapshotStore
	unfollowers *store.UnfollowerStore
	detector    *Detector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:         dir,
		gateway:     &fakeGateway{},
		notifier:    &fakeNotifier{},
		snapshots:   store.NewSnapshotStore(dir),
		unfollowers: store.NewUnfollowerStore(dir),
	}
	f.detector = New(f.gateway, f.snapshots, f.unfollowers, f.notifier, nil)
	f.detector.SetClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) })
	return f
}

func followers(logins ...string) []models.Follower {
	out := make([]models.Follower, 0, len(logins))
	for _, l := range logins {
		out = append(out, models.Follower{Login: l, AvatarURL: "https://avatars/" + l, ProfileURL: "https://github.com/" + l})
	}
	return out
}

func logins(fs []models.Follower) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Login)
	}
	return out
}

var cred = models.Credential{Token: "t0k3n", Username: "octocat"}

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		previous []string
		current  []string
		want     []string
	}{
		{"one left", []string{"alice", "bob", "carol"}, []string{"alice", "carol"}, []string{"bob"}},
		{"new followers only", []string{"alice"}, []string{"alice", "dave"}, []string{}},
		{"everyone left", []string{"alice", "bob"}, []string{}, []string{"alice", "bob"}},
		{"empty previous", []string{}, []string{"alice"}, []string{}},
		{"case differs", []string{"Alice", "bob"}, []string{"alice"}, []string{"bob"}},
		{"keeps previous order", []string{"zed", "amy", "kim"}, []string{"amy"}, []string{"zed", "kim"}},
		{"duplicate previous", []string{"bob", "BOB"}, []string{}, []string{"bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(followers(tt.previous...), followers(tt.current...))
			assert.Equal(t, tt.want, logins(got))
		})
	}
}

func TestDiffIsSubsetOfPreviousAndDisjointFromCurrent(t *testing.T) {
	previous := followers("a", "b", "c", "d", "e")
	current := followers("b", "d", "f")

	got := Diff(previous, current)
	prevSet := models.LoginSet(previous)
	currSet := models.LoginSet(current)
	for _, f := range got {
		_, inPrev := prevSet[f.Key()]
		_, inCurr := currSet[f.Key()]
		assert.True(t, inPrev)
		assert.False(t, inCurr)
	}
	assert.Len(t, got, 3)
}

func TestDetectQuiescentWithoutCredential(t *testing.T) {
	f := newFixture(t)

	result, err := f.detector.Detect(context.Background(), models.Credential{}, Options{})
	require.NoError(t, err)
	assert.True(t, result.Quiescent)
	assert.NotEmpty(t, result.CycleID)

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDetectFirstRunWritesBaseline(t *testing.T) {
	f := newFixture(t)
	f.gateway.followers = followers("alice", "bob")

	result, err := f.detector.Detect(context.Background(), cred, Options{})
	require.NoError(t, err)
	assert.True(t, result.FirstRun)
	assert.Empty(t, result.Unfollowers)
	assert.Equal(t, 2, result.Followers)

	snap, err := f.snapshots.Load("octocat")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, followers("alice", "bob"), snap.Followers)

	_, err = os.Stat(filepath.Join(f.dir, constants.UnfollowersFile))
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, f.notifier.unfollowers)
}

func TestDetectReportsUnfollowers(t *testing.T) {
	f := newFixture(t)
	f.gateway.followers = followers("alice", "bob", "carol")
	_, err := f.detector.Detect(context.Background(), cred, Options{})
	require.NoError(t, err)

	f.gateway.followers = followers("alice", "carol")
	result, err := f.detector.Detect(context.Background(), cred, Options{})
	require.NoError(t, err)

	assert.False(t, result.FirstRun)
	assert.Equal(t, []string{"bob"}, logins(result.Unfollowers))
	assert.Equal(t, []string{"bob"}, f.notifier.unfollowers)

	rec, err := f.unfollowers.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, logins(rec.Unfollowers))
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), rec.LastChecked)

	snap, err := f.snapshots.Load("octocat")
	require.NoError(t, err)
	assert.Equal(t, followers("alice", "carol"), snap.Followers)
}

func TestDetectUnchangedKeepsPreviousUnfollowers(t *testing.T) {
	f := newFixture(t)
	f.gateway.followers = followers("alice", "bob")
	_, err := f.detector.Detect(context.Background(), cred, Options{})
	require.NoError(t, err)

	f.gateway.followers = followers("alice")
	_, err = f.detector.Detect(context.Background(), cred, Options{})
	require.NoError(t, err)

	result, err := f.detector.Detect(context.Background(), cred, Options{})
	require.NoError(t, err)
	assert.Empty(t, result.Unfollowers)

	rec, err := f.unfollowers.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, logins(rec.Unfollowers))
	assert.Equal(t, []string{"bob"}, f.notifier.unfollowers)
}

func TestDetectFetchFailureLeavesStoresUntouched(t *testing.T) {
	f := newFixture(t)
	f.gateway.followers = followers("alice", "bob")
	_, err := f.detector.Detect(context.Background(), cred, Options{})
	require.NoError(t, err)

	f.gateway.err = errors.New("boom")
	_, err = f.detector.Detect(context.Background(), cred, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch followers")

	snap, err := f.snapshots.Load("octocat")
	require.NoError(t, err)
	assert.Equal(t, followers("alice", "bob"), snap.Followers)
	assert.Empty(t, f.notifier.unfollowers)
}

func TestDetectMalformedSnapshotIsFirstRun(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.dir, constants.SnapshotFilePrefix+"octocat.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	f.gateway.followers = followers("alice")
	result, err := f.detector.Detect(context.Background(), cred, Options{})
	require.NoError(t, err)
	assert.True(t, result.FirstRun)
	assert.Empty(t, result.Unfollowers)
}

func TestDetectAutoUnfollow(t *testing.T) {
	f := newFixture(t)
	f.gateway.followers = followers("alice", "bob", "carol")
	_, err := f.detector.Detect(context.Background(), cred, Options{AutoUnfollow: true})
	require.NoError(t, err)

	f.gateway.followers = followers("alice")
	f.gateway.following = followers("bob", "dave")
	result, err := f.detector.Detect(context.Background(), cred, Options{AutoUnfollow: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"bob", "carol"}, logins(result.Unfollowers))
	assert.Equal(t, []string{"bob"}, result.AutoUnfollowed)
	assert.Equal(t, []string{"bob"}, f.gateway.unfollowed)
	assert.Equal(t, []string{"bob"}, f.notifier.auto)
}

func TestDetectAutoUnfollowFailureDoesNotFailCycle(t *testing.T) {
	f := newFixture(t)
	f.gateway.followers = followers("alice", "bob")
	_, err := f.detector.Detect(context.Background(), cred, Options{AutoUnfollow: true})
	require.NoError(t, err)

	f.gateway.followers = followers("alice")
	f.gateway.following = followers("bob")
	f.gateway.unfollowFn = func(string) error { return errors.New("forbidden") }

	result, err := f.detector.Detect(context.Background(), cred, Options{AutoUnfollow: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, logins(result.Unfollowers))
	assert.Empty(t, result.AutoUnfollowed)
	assert.Empty(t, f.notifier.auto)
}

func TestDetectWithoutAutoUnfollowLeavesFollowing(t *testing.T) {
	f := newFixture(t)
	f.gateway.followers = followers("alice", "bob")
	_, err := f.detector.Detect(context.Background(), cred, Options{})
	require.NoError(t, err)

	f.gateway.followers = followers("alice")
	f.gateway.following = followers("bob")
	_, err = f.detector.Detect(context.Background(), cred, Options{})
	require.NoError(t, err)
	assert.Empty(t, f.gateway.unfollowed)
}
