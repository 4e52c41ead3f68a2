package vfs

import "time"

// Permission is a bitmask of file and directory rights.
type Permission int

const (
	PermNone    Permission = 0
	PermRead    Permission = 1
	PermWrite   Permission = 2
	PermExecute Permission = 4
	PermAll                = PermRead | PermWrite | PermExecute
)

// Has reports whether p includes all bits of required.
func (p Permission) Has(required Permission) bool {
	return p&required == required
}

// FileType classifies file contents for the launcher UI.
type FileType string

const (
	FileText   FileType = "text"
	FileImage  FileType = "image"
	FileAudio  FileType = "audio"
	FileJSON   FileType = "json"
	FileBinary FileType = "binary"
)

// icons per file type, shown by the file browser.
var fileIcons = map[FileType]string{
	FileText:  "📄",
	FileImage: "🖼️",
	FileAudio: "🎵",
	FileJSON:  "📋",
}

// File is a file node in the virtual tree.
type File struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Type        FileType   `json:"type"`
	Content     string     `json:"content"`
	Size        int        `json:"size"`
	Owner       string     `json:"owner"`
	Permissions Permission `json:"permissions"`
	Created     time.Time  `json:"created"`
	Modified    time.Time  `json:"modified"`
	Icon        string     `json:"icon"`
}

// Directory is a directory node in the virtual tree.
type Directory struct {
	Name        string                `json:"name"`
	Path        string                `json:"path"`
	Owner       string                `json:"owner"`
	Permissions Permission            `json:"permissions"`
	Files       map[string]*File      `json:"files"`
	Subdirs     map[string]*Directory `json:"subdirs"`
	Icon        string                `json:"icon"`
}

func newDirectory(name, path, owner string, permissions Permission, icon string) *Directory {
	return &Directory{
		Name:        name,
		Path:        path,
		Owner:       owner,
		Permissions: permissions,
		Files:       map[string]*File{},
		Subdirs:     map[string]*Directory{},
		Icon:        icon,
	}
}

// DirEntry is a single row of a directory listing.
type DirEntry struct {
	Name  string   `json:"name"`
	Path  string   `json:"path"`
	IsDir bool     `json:"isDir"`
	Type  FileType `json:"type,omitempty"`
	Size  int      `json:"size,omitempty"`
	Icon  string   `json:"icon"`
}
