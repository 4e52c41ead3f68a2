// Package vfs implements the sandboxed virtual file system. The tree lives
// in memory and mirrors to storage as a single JSON document. Access control
// is user based: the kid user is denied /system entirely, the parent user
// bypasses permission checks.
//
// Default layout:
//
//	/system/{config,logs}    read-only, hidden from kids
//	/kids/{drawings,stories,music}  read-write for kids
//	/shared/{stories,music}  read-only media
package vfs

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/Saroosh05/MiniMindOS/internal/clock"
)

// Well known users.
const (
	UserKid    = "kid"
	UserParent = "parent"
	UserSystem = "system"
)

// Sentinel errors for the file system operations.
var (
	ErrPermission   = errors.New("access denied")
	ErrNotFound     = errors.New("no such file or directory")
	ErrNotDirectory = errors.New("not a directory")
	ErrNotFile      = errors.New("not a file")
	ErrExists       = errors.New("already exists")
	ErrInvalidPath  = errors.New("invalid path")
)

// Service is the virtual file system.
type Service struct {
	mu   sync.Mutex
	root *Directory
	user string

	fs  afs.Service
	url string
}

// Option customises the service.
type Option func(*Service)

// WithStorage enables JSON persistence of the tree under baseURL.
func WithStorage(fs afs.Service, baseURL string) Option {
	return func(s *Service) {
		s.fs = fs
		s.url = path.Join(baseURL, "filesystem.json")
	}
}

// New creates the file system with the default layout, then overlays any
// persisted tree. The current user starts as kid.
func New(options ...Option) *Service {
	s := &Service{
		root: defaultTree(),
		user: UserKid,
	}
	for _, option := range options {
		option(s)
	}
	s.load()
	return s
}

func defaultTree() *Directory {
	root := newDirectory("/", "/", UserSystem, PermRead|PermWrite, "📁")

	system := newDirectory("system", "/system", UserSystem, PermRead, "⚙️")
	system.Subdirs["config"] = newDirectory("config", "/system/config", UserSystem, PermRead, "📁")
	system.Subdirs["logs"] = newDirectory("logs", "/system/logs", UserSystem, PermRead, "📁")

	kids := newDirectory("kids", "/kids", UserKid, PermAll, "👶")
	kids.Subdirs["drawings"] = newDirectory("drawings", "/kids/drawings", UserKid, PermAll, "🎨")
	kids.Subdirs["stories"] = newDirectory("stories", "/kids/stories", UserKid, PermAll, "📚")
	kids.Subdirs["music"] = newDirectory("music", "/kids/music", UserKid, PermAll, "🎵")

	shared := newDirectory("shared", "/shared", UserSystem, PermRead, "📂")
	shared.Subdirs["stories"] = newDirectory("stories", "/shared/stories", UserSystem, PermRead, "📖")
	shared.Subdirs["music"] = newDirectory("music", "/shared/music", UserSystem, PermRead, "🎶")

	root.Subdirs["system"] = system
	root.Subdirs["kids"] = kids
	root.Subdirs["shared"] = shared
	return root
}

// SetUser switches the current user.
func (s *Service) SetUser(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// User returns the current user.
func (s *Service) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// List returns the entries of a directory, subdirectories first, sorted by
// name. For the kid user /system is hidden from the root listing.
func (s *Service) List(aPath string) ([]DirEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPermission(aPath, PermRead); err != nil {
		return nil, err
	}
	dir, _, err := s.lookup(aPath)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, errors.Wrapf(ErrNotDirectory, "%v", aPath)
	}

	var entries []DirEntry
	for name, subdir := range dir.Subdirs {
		if s.user == UserKid && subdir.Path == "/system" {
			continue
		}
		entries = append(entries, DirEntry{
			Name:  name,
			Path:  subdir.Path,
			IsDir: true,
			Icon:  subdir.Icon,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var files []DirEntry
	for name, item := range dir.Files {
		files = append(files, DirEntry{
			Name: name,
			Path: item.Path,
			Type: item.Type,
			Size: item.Size,
			Icon: item.Icon,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return append(entries, files...), nil
}

// CreateFile creates a file; the parent directory must exist and be writable.
func (s *Service) CreateFile(aPath, content string, fileType FileType) error {
	s.mu.Lock()
	if err := s.checkPermission(parentPath(aPath), PermWrite); err != nil {
		s.mu.Unlock()
		return err
	}
	dir, _, err := s.lookup(parentPath(aPath))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if dir == nil {
		s.mu.Unlock()
		return errors.Wrapf(ErrNotDirectory, "%v", parentPath(aPath))
	}
	name := baseName(aPath)
	if name == "" {
		s.mu.Unlock()
		return errors.Wrapf(ErrInvalidPath, "%v", aPath)
	}
	if _, ok := dir.Files[name]; ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrExists, "%v", aPath)
	}
	icon, ok := fileIcons[fileType]
	if !ok {
		icon = "📄"
	}
	now := clock.Now()
	dir.Files[name] = &File{
		Name:        name,
		Path:        aPath,
		Type:        fileType,
		Content:     content,
		Size:        len(content),
		Owner:       s.user,
		Permissions: PermRead | PermWrite,
		Created:     now,
		Modified:    now,
		Icon:        icon,
	}
	s.mu.Unlock()
	s.save()
	return nil
}

// ReadFile returns the content of a file.
func (s *Service) ReadFile(aPath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPermission(aPath, PermRead); err != nil {
		return "", err
	}
	_, item, err := s.lookup(aPath)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", errors.Wrapf(ErrNotFile, "%v", aPath)
	}
	return item.Content, nil
}

// WriteFile replaces the content of an existing file.
func (s *Service) WriteFile(aPath, content string) error {
	s.mu.Lock()
	if err := s.checkPermission(aPath, PermWrite); err != nil {
		s.mu.Unlock()
		return err
	}
	_, item, err := s.lookup(aPath)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if item == nil {
		s.mu.Unlock()
		return errors.Wrapf(ErrNotFile, "%v", aPath)
	}
	item.Content = content
	item.Size = len(content)
	item.Modified = clock.Now()
	s.mu.Unlock()
	s.save()
	return nil
}

// DeleteFile removes a file.
func (s *Service) DeleteFile(aPath string) error {
	s.mu.Lock()
	if err := s.checkPermission(aPath, PermWrite); err != nil {
		s.mu.Unlock()
		return err
	}
	dir, _, err := s.lookup(parentPath(aPath))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	name := baseName(aPath)
	if dir == nil || dir.Files[name] == nil {
		s.mu.Unlock()
		return errors.Wrapf(ErrNotFound, "%v", aPath)
	}
	delete(dir.Files, name)
	s.mu.Unlock()
	s.save()
	return nil
}

// MkDir creates a directory; the parent must exist and be writable.
func (s *Service) MkDir(aPath string) error {
	s.mu.Lock()
	if err := s.checkPermission(parentPath(aPath), PermWrite); err != nil {
		s.mu.Unlock()
		return err
	}
	dir, _, err := s.lookup(parentPath(aPath))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if dir == nil {
		s.mu.Unlock()
		return errors.Wrapf(ErrNotDirectory, "%v", parentPath(aPath))
	}
	name := baseName(aPath)
	if name == "" {
		s.mu.Unlock()
		return errors.Wrapf(ErrInvalidPath, "%v", aPath)
	}
	if _, ok := dir.Subdirs[name]; ok {
		s.mu.Unlock()
		return errors.Wrapf(ErrExists, "%v", aPath)
	}
	dir.Subdirs[name] = newDirectory(name, aPath, s.user, PermRead|PermWrite, "📁")
	s.mu.Unlock()
	s.save()
	return nil
}

// Exists reports whether a file or directory exists at the path. Paths the
// current user cannot see read as absent, so the kid cannot probe /system.
func (s *Service) Exists(aPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == UserKid && (aPath == "/system" || strings.HasPrefix(aPath, "/system/")) {
		return false
	}
	dir, item, err := s.lookup(aPath)
	return err == nil && (dir != nil || item != nil)
}

// Stat returns metadata for a file node.
func (s *Service) Stat(aPath string) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPermission(aPath, PermRead); err != nil {
		return nil, err
	}
	_, item, err := s.lookup(aPath)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.Wrapf(ErrNotFile, "%v", aPath)
	}
	info := *item
	return &info, nil
}

// checkPermission enforces access for the current user. Caller holds s.mu.
func (s *Service) checkPermission(aPath string, required Permission) error {
	if s.user == UserParent {
		return nil
	}
	if s.user == UserKid && (aPath == "/system" || strings.HasPrefix(aPath, "/system/")) {
		return errors.Wrapf(ErrPermission, "%v", aPath)
	}
	dir, item, err := s.lookup(aPath)
	if err != nil {
		return err
	}
	var permissions Permission
	switch {
	case dir != nil:
		permissions = dir.Permissions
	case item != nil:
		permissions = item.Permissions
	default:
		return errors.Wrapf(ErrNotFound, "%v", aPath)
	}
	if !permissions.Has(required) {
		return errors.Wrapf(ErrPermission, "%v", aPath)
	}
	return nil
}

// lookup resolves a path to a directory or file node. Exactly one of the
// returned nodes is non-nil on success. Caller holds s.mu.
func (s *Service) lookup(aPath string) (*Directory, *File, error) {
	if aPath == "" || !strings.HasPrefix(aPath, "/") {
		return nil, nil, errors.Wrapf(ErrInvalidPath, "%q", aPath)
	}
	if aPath == "/" {
		return s.root, nil, nil
	}
	parts := strings.Split(strings.Trim(aPath, "/"), "/")
	current := s.root
	for _, part := range parts[:len(parts)-1] {
		next, ok := current.Subdirs[part]
		if !ok {
			return nil, nil, errors.Wrapf(ErrNotFound, "%v", aPath)
		}
		current = next
	}
	last := parts[len(parts)-1]
	if dir, ok := current.Subdirs[last]; ok {
		return dir, nil, nil
	}
	if item, ok := current.Files[last]; ok {
		return nil, item, nil
	}
	return nil, nil, errors.Wrapf(ErrNotFound, "%v", aPath)
}

func parentPath(aPath string) string {
	parent := path.Dir(strings.TrimRight(aPath, "/"))
	if parent == "" || parent == "." {
		return "/"
	}
	return parent
}

func baseName(aPath string) string {
	name := path.Base(strings.TrimRight(aPath, "/"))
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// save mirrors the tree to storage; best effort.
func (s *Service) save() {
	if s.fs == nil {
		return
	}
	s.mu.Lock()
	data, err := json.Marshal(s.root)
	s.mu.Unlock()
	if err != nil {
		return
	}
	_ = s.fs.Upload(context.Background(), s.url, file.DefaultFileOsMode, bytes.NewReader(data))
}

func (s *Service) load() {
	if s.fs == nil {
		return
	}
	ctx := context.Background()
	if ok, _ := s.fs.Exists(ctx, s.url); !ok {
		return
	}
	data, err := s.fs.DownloadWithURL(ctx, s.url)
	if err != nil {
		return
	}
	root := &Directory{}
	if err := json.Unmarshal(data, root); err != nil {
		return
	}
	normalize(root)
	s.root = root
}

// normalize backfills nil maps after JSON decoding.
func normalize(dir *Directory) {
	if dir.Files == nil {
		dir.Files = map[string]*File{}
	}
	if dir.Subdirs == nil {
		dir.Subdirs = map[string]*Directory{}
	}
	for _, subdir := range dir.Subdirs {
		normalize(subdir)
	}
}
