package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/Saroosh05/MiniMindOS/internal/clock"
)

func TestService_LogAndRecent(t *testing.T) {
	s := New()
	s.Log("PROCESS", "Process created: Drawing App", "system")
	s.Log("SECURITY", "Parent mode activated", "parent")
	s.Log("PROCESS", "Process terminated: Drawing App", "system")

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "Process terminated: Drawing App", recent[0].Detail)
	assert.Equal(t, "SECURITY", recent[1].Kind)
	assert.NotEmpty(t, recent[0].ID)

	byKind := s.ByKind("PROCESS", 0)
	require.Len(t, byKind, 2)
	assert.Equal(t, "Process terminated: Drawing App", byKind[0].Detail)
}

func TestService_CapKeepsNewest(t *testing.T) {
	s := New(WithMaxEntries(3))
	for i := 0; i < 5; i++ {
		s.Log("TICK", string(rune('a'+i)), "system")
	}
	assert.Equal(t, 3, s.Count())
	recent := s.Recent(0)
	assert.Equal(t, "e", recent[0].Detail)
	assert.Equal(t, "c", recent[2].Detail)
}

func TestService_Since(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	now := base
	clock.NowFunc = func() time.Time { return now }
	defer func() { clock.NowFunc = time.Now }()

	s := New()
	s.Log("OLD", "yesterday", "system")
	now = base.Add(24 * time.Hour)
	s.Log("NEW", "today", "system")

	today := s.Since(base.Add(12 * time.Hour))
	require.Len(t, today, 1)
	assert.Equal(t, "NEW", today[0].Kind)
}

func TestService_PersistenceRoundTrip(t *testing.T) {
	baseURL := t.TempDir()
	fs := afs.New()

	s := New(WithStorage(fs, baseURL))
	s.Log("SYSTEM", "MiniMind OS started", "system")
	s.Log("PROCESS", "Process created: Music Player", "system")

	reloaded := New(WithStorage(fs, baseURL))
	assert.Equal(t, 2, reloaded.Count())
	recent := reloaded.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "Process created: Music Player", recent[0].Detail)

	reloaded.Clear()
	assert.Equal(t, 0, New(WithStorage(fs, baseURL)).Count())
}
