package session

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// FileStore keeps the cookie jar as one JSON file at a fixed per-user
// path. The file is fully overwritten on Save and fully replaced on Load,
// never merged.
type FileStore struct {
	path       string
	authCookie string
}

// NewFileStore returns a store writing to path. authCookie names the
// cookie whose presence makes a loaded jar count as a valid session.
func NewFileStore(path, authCookie string) *FileStore {
	return &FileStore{path: path, authCookie: authCookie}
}

// DefaultJarPath is the per-user cookie jar location used when the config
// does not override it.
func DefaultJarPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "juradoc", "cookies.json")
}

func (s *FileStore) Save(cookies []Cookie) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Load() ([]Cookie, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, false
	}
	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, false
	}
	if !hasLiveAuthCookie(cookies, s.authCookie) {
		return nil, false
	}
	return cookies, true
}
