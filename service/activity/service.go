package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/Saroosh05/MiniMindOS/internal/clock"
	"github.com/Saroosh05/MiniMindOS/internal/idgen"
)

// DefaultMaxEntries caps the log so the parent review screen stays bounded.
const DefaultMaxEntries = 1000

// Entry is a single recorded activity.
type Entry struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Kind   string    `json:"kind"`
	Detail string    `json:"detail"`
	User   string    `json:"user"`
}

// Service records kid (and parent) activity for later review. Entries are
// kept in memory, capped, and mirrored to storage after each write.
type Service struct {
	mu         sync.Mutex
	entries    []Entry
	maxEntries int
	fs         afs.Service
	logURL     string
}

// Option customises the service.
type Option func(*Service)

// WithMaxEntries overrides the entry cap.
func WithMaxEntries(max int) Option {
	return func(s *Service) {
		if max > 0 {
			s.maxEntries = max
		}
	}
}

// WithStorage enables persistence under the given base URL.
func WithStorage(fs afs.Service, baseURL string) Option {
	return func(s *Service) {
		s.fs = fs
		s.logURL = path.Join(baseURL, "activity_log.json")
	}
}

// New creates an activity log, reloading previously persisted entries when
// storage is configured.
func New(options ...Option) *Service {
	s := &Service{maxEntries: DefaultMaxEntries}
	for _, option := range options {
		option(s)
	}
	s.load()
	return s
}

// Log appends an entry and persists the log.
func (s *Service) Log(kind, detail, user string) {
	s.mu.Lock()
	s.entries = append(s.entries, Entry{
		ID:     idgen.New(),
		Time:   clock.Now(),
		Kind:   kind,
		Detail: detail,
		User:   user,
	})
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[len(s.entries)-s.maxEntries:]
	}
	snapshot := append([]Entry(nil), s.entries...)
	s.mu.Unlock()
	s.persist(snapshot)
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Service) Recent(limit int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.entries, limit)
}

// ByKind returns up to limit entries of the given kind, newest first.
func (s *Service) ByKind(kind string, limit int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var filtered []Entry
	for _, entry := range s.entries {
		if entry.Kind == kind {
			filtered = append(filtered, entry)
		}
	}
	return newestFirst(filtered, limit)
}

// Since returns all entries recorded at or after t, newest first.
func (s *Service) Since(t time.Time) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var filtered []Entry
	for _, entry := range s.entries {
		if !entry.Time.Before(t) {
			filtered = append(filtered, entry)
		}
	}
	return newestFirst(filtered, 0)
}

// Clear wipes the log (a parent-only operation at the GUI level).
func (s *Service) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
	s.persist(nil)
}

// Count returns the number of retained entries.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func newestFirst(entries []Entry, limit int) []Entry {
	out := make([]Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// persist is best effort: a failed save never breaks the simulation.
func (s *Service) persist(entries []Entry) {
	if s.fs == nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	_ = s.fs.Upload(context.Background(), s.logURL, file.DefaultFileOsMode, bytes.NewReader(data))
}

func (s *Service) load() {
	if s.fs == nil {
		return
	}
	ctx := context.Background()
	if ok, _ := s.fs.Exists(ctx, s.logURL); !ok {
		return
	}
	data, err := s.fs.DownloadWithURL(ctx, s.logURL)
	if err != nil {
		return
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}
	if len(entries) > s.maxEntries {
		entries = entries[len(entries)-s.maxEntries:]
	}
	s.entries = entries
}
