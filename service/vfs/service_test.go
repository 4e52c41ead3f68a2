package vfs

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func TestService_DefaultLayout(t *testing.T) {
	s := New()
	entries, err := s.List("/")
	require.NoError(t, err)

	// Kid user never sees /system.
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"kids", "shared"}, names)

	s.SetUser(UserParent)
	entries, err = s.List("/")
	require.NoError(t, err)
	names = names[:0]
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"kids", "shared", "system"}, names)

	assert.True(t, s.Exists("/kids/drawings"))
	assert.True(t, s.Exists("/shared/music"))
	assert.False(t, s.Exists("/kids/homework"))
}

func TestService_KidDeniedSystem(t *testing.T) {
	s := New()
	_, err := s.List("/system")
	assert.True(t, errors.Is(err, ErrPermission))

	err = s.CreateFile("/system/config/settings.json", "{}", FileJSON)
	assert.True(t, errors.Is(err, ErrPermission))

	_, err = s.ReadFile("/system/logs/boot.log")
	assert.True(t, errors.Is(err, ErrPermission))

	// Existence probes match the listing behaviour.
	assert.False(t, s.Exists("/system"))
	assert.False(t, s.Exists("/system/config"))
	s.SetUser(UserParent)
	assert.True(t, s.Exists("/system/config"))
}

func TestService_KidReadOnlyShared(t *testing.T) {
	s := New()
	err := s.CreateFile("/shared/stories/new.txt", "once upon a time", FileText)
	assert.True(t, errors.Is(err, ErrPermission))

	// Parent can write anywhere.
	s.SetUser(UserParent)
	require.NoError(t, s.CreateFile("/shared/stories/new.txt", "once upon a time", FileText))

	s.SetUser(UserKid)
	content, err := s.ReadFile("/shared/stories/new.txt")
	require.NoError(t, err)
	assert.Equal(t, "once upon a time", content)

	err = s.WriteFile("/shared/stories/new.txt", "edited")
	assert.True(t, errors.Is(err, ErrPermission))
}

func TestService_FileLifecycle(t *testing.T) {
	s := New()
	require.NoError(t, s.CreateFile("/kids/drawings/cat.png", "meow-pixels", FileImage))

	err := s.CreateFile("/kids/drawings/cat.png", "again", FileImage)
	assert.True(t, errors.Is(err, ErrExists))

	info, err := s.Stat("/kids/drawings/cat.png")
	require.NoError(t, err)
	assert.Equal(t, FileImage, info.Type)
	assert.Equal(t, len("meow-pixels"), info.Size)
	assert.Equal(t, UserKid, info.Owner)
	assert.Equal(t, "🖼️", info.Icon)

	require.NoError(t, s.WriteFile("/kids/drawings/cat.png", "bigger-meow-pixels"))
	content, err := s.ReadFile("/kids/drawings/cat.png")
	require.NoError(t, err)
	assert.Equal(t, "bigger-meow-pixels", content)

	require.NoError(t, s.DeleteFile("/kids/drawings/cat.png"))
	_, err = s.ReadFile("/kids/drawings/cat.png")
	assert.True(t, errors.Is(err, ErrNotFound))
	err = s.DeleteFile("/kids/drawings/cat.png")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestService_MkDirAndListing(t *testing.T) {
	s := New()
	require.NoError(t, s.MkDir("/kids/drawings/animals"))
	err := s.MkDir("/kids/drawings/animals")
	assert.True(t, errors.Is(err, ErrExists))

	require.NoError(t, s.CreateFile("/kids/drawings/zebra.txt", "stripes", FileText))
	entries, err := s.List("/kids/drawings")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].IsDir)
	assert.Equal(t, "animals", entries[0].Name)
	assert.Equal(t, "zebra.txt", entries[1].Name)
	assert.Equal(t, FileText, entries[1].Type)
}

func TestService_InvalidPaths(t *testing.T) {
	s := New()
	_, err := s.ReadFile("relative/path")
	assert.True(t, errors.Is(err, ErrInvalidPath))

	_, err = s.List("/kids/nowhere")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.ReadFile("/kids/drawings")
	assert.True(t, errors.Is(err, ErrNotFile))
}

func TestService_PersistenceRoundTrip(t *testing.T) {
	baseURL := t.TempDir()
	fs := afs.New()

	s := New(WithStorage(fs, baseURL))
	require.NoError(t, s.CreateFile("/kids/stories/dragon.txt", "a friendly dragon", FileText))
	require.NoError(t, s.MkDir("/kids/music/favorites"))

	reloaded := New(WithStorage(fs, baseURL))
	content, err := reloaded.ReadFile("/kids/stories/dragon.txt")
	require.NoError(t, err)
	assert.Equal(t, "a friendly dragon", content)
	assert.True(t, reloaded.Exists("/kids/music/favorites"))

	// The sandbox rules survive the reload.
	_, err = reloaded.List("/system")
	assert.True(t, errors.Is(err, ErrPermission))
}
