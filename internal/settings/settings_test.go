package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
)

func ptr[T any](v T) *T { return &v }

func TestApplyKeepsUnsetFields(t *testing.T) {
	existing := Defaults()
	existing.RefreshIntervalMinutes = 5
	existing.Theme = "dark"

	got := existing.Apply(Patch{Theme: ptr("light")})

	assert.Equal(t, 5, got.RefreshIntervalMinutes)
	assert.Equal(t, "light", got.Theme)
	assert.Equal(t, existing.NotificationsEnabled, got.NotificationsEnabled)
	assert.Equal(t, existing.AccentColor, got.AccentColor)
}

func TestApplyFalseIsNotUnset(t *testing.T) {
	got := Defaults().Apply(Patch{NotificationsEnabled: ptr(false)})
	assert.False(t, got.NotificationsEnabled)
}

func TestToPatchRoundTrip(t *testing.T) {
	s := Defaults()
	s.Theme = "light"
	s.AutoUnfollow = true
	assert.Equal(t, s, Settings{}.Apply(s.ToPatch()))
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, s.ToPatch().IsEmpty())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Defaults()))

	bad := Defaults()
	bad.RefreshIntervalMinutes = 0
	assert.ErrorIs(t, Validate(bad), ErrInvalid)

	bad.RefreshIntervalMinutes = -3
	assert.ErrorIs(t, Validate(bad), ErrInvalid)
}

func TestStoreDefaultsWhenMissing(t *testing.T) {
	s := NewStore(t.TempDir())

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestStoreMergePersists(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	_, _, err := s.Save(Patch{RefreshIntervalMinutes: ptr(5), Theme: ptr("dark")})
	require.NoError(t, err)

	previous, current, err := s.Save(Patch{Theme: ptr("light")})
	require.NoError(t, err)
	assert.Equal(t, "dark", previous.Theme)
	assert.Equal(t, "light", current.Theme)
	assert.Equal(t, 5, current.RefreshIntervalMinutes)

	reloaded, err := NewStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, current, reloaded)
}

func TestStoreRejectsInvalidPatch(t *testing.T) {
	s := NewStore(t.TempDir())

	_, _, err := s.Save(Patch{RefreshIntervalMinutes: ptr(0)})
	assert.ErrorIs(t, err, ErrInvalid)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultRefreshIntervalMinutes, got.RefreshIntervalMinutes)
}

func TestStorePartialDocumentKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.SettingsFile), []byte(`{"theme":"light"}`), 0644))

	got, err := NewStore(dir).Load()
	require.NoError(t, err)

	want := Defaults()
	want.Theme = "light"
	assert.Equal(t, want, got)
}

func TestStoreMalformedFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.SettingsFile), []byte(`{"theme":`), 0644))

	got, err := NewStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestStoreReset(t *testing.T) {
	s := NewStore(t.TempDir())
	_, _, err := s.Save(Patch{Theme: ptr("light"), AutoUnfollow: ptr(true)})
	require.NoError(t, err)

	previous, current, err := s.Reset()
	require.NoError(t, err)
	assert.Equal(t, "light", previous.Theme)
	assert.Equal(t, Defaults(), current)
}

func TestStoreInvalidFieldRevertsOnlyThatField(t *testing.T) {
	dir := t.TempDir()
	doc := `{"refreshIntervalMinutes":0,"theme":"light","autoUnfollow":true,"accentColor":"blue"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.SettingsFile), []byte(doc), 0644))

	got, err := NewStore(dir).Load()
	require.NoError(t, err)

	want := Defaults()
	want.Theme = "light"
	want.AutoUnfollow = true
	assert.Equal(t, want, got)
}

func TestRepairReportsRevertedKeys(t *testing.T) {
	stored := Defaults()
	stored.RefreshIntervalMinutes = 5000
	stored.Theme = ""
	stored.CloseToTray = false

	got, dropped := repair(stored)
	assert.Equal(t, []string{"refreshIntervalMinutes", "theme"}, dropped)
	assert.Equal(t, constants.DefaultRefreshIntervalMinutes, got.RefreshIntervalMinutes)
	assert.Equal(t, Defaults().Theme, got.Theme)
	assert.False(t, got.CloseToTray)
	require.NoError(t, Validate(got))
}
