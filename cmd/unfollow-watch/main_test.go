package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrickWalther/unfollow-watch-go/internal/settings"
	"github.com/PatrickWalther/unfollow-watch-go/internal/version"
)

// execute runs the CLI against an isolated data directory with desktop
// notifications and the web API off.
func execute(t *testing.T, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()

	t.Setenv("UNFOLLOW_WATCH_NOTIFICATIONS_DESKTOP_ENABLED", "false")
	t.Setenv("UNFOLLOW_WATCH_LOGGER_SAVE", "false")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--data-dir", dataDir, "--no-web"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Version)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, t.TempDir(), "", "init-config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dataDir")

	_, err = execute(t, t.TempDir(), "", "init-config", path)
	assert.Error(t, err)

	_, err = execute(t, t.TempDir(), "", "init-config", "--force", path)
	assert.NoError(t, err)
}

func TestSettingsSetAndGet(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "", "settings", "set", "--interval", "10", "--auto-unfollow")
	require.NoError(t, err)

	out, err := execute(t, dir, "", "settings", "get", "--json")
	require.NoError(t, err)

	var s settings.Settings
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 10, s.RefreshIntervalMinutes)
	assert.True(t, s.AutoUnfollow)
	assert.Equal(t, settings.Defaults().Theme, s.Theme)

	out, err = execute(t, dir, "", "settings", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "5m")
}

func TestSettingsSetRequiresAFlag(t *testing.T) {
	_, err := execute(t, t.TempDir(), "", "settings", "set")
	assert.Error(t, err)
}

func TestSettingsSetRejectsInvalidInterval(t *testing.T) {
	_, err := execute(t, t.TempDir(), "", "settings", "set", "--interval", "0")
	assert.ErrorIs(t, err, settings.ErrInvalid)
}

func TestLoginFromPipedInput(t *testing.T) {
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = termIsTerminal })

	dir := t.TempDir()
	out, err := execute(t, dir, "octocat\nghp_abcdef1234\n", "login", "--skip-verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved credential for octocat")
	assert.Contains(t, out, "1234")
	assert.NotContains(t, out, "ghp_abcdef")

	_, err = os.Stat(filepath.Join(dir, "token.json"))
	assert.NoError(t, err)
}

func TestLoginReadsTokenWithoutEcho(t *testing.T) {
	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("ghp_secret9999\n"), nil }
	t.Cleanup(func() {
		isTerminal = termIsTerminal
		readPassword = termReadPassword
	})

	out, err := execute(t, t.TempDir(), "", "login", "--username", "octocat", "--skip-verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved credential for octocat")
}

func TestLoginRequiresToken(t *testing.T) {
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = termIsTerminal })

	_, err := execute(t, t.TempDir(), "octocat\n\n", "login", "--skip-verify")
	assert.Error(t, err)
}

func TestCheckWithoutCredential(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "No credential saved")
}

func TestUnfollowersEmpty(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", "unfollowers")
	require.NoError(t, err)
	assert.Contains(t, out, "No unfollowers recorded.")

	out, err = execute(t, dir, "", "unfollowers", "--count")
	require.NoError(t, err)
	assert.Equal(t, "0", strings.TrimSpace(out))
}

func TestFollowersRequiresCredential(t *testing.T) {
	_, err := execute(t, t.TempDir(), "", "followers")
	assert.Error(t, err)
}
