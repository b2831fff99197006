package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"loopcal-go/types"
)

// File keeps both settings blocks in one JSON document on disk. Writes go
// through a temporary file and a rename.
type File struct {
	mu   sync.Mutex
	path string
}

type fileDoc struct {
	System *types.SystemSettings `json:"system,omitempty"`
	User   *types.UserSettings   `json:"user,omitempty"`
}

func NewFile(path string) *File { return &File{path: path} }

func (f *File) read() (fileDoc, error) {
	var doc fileDoc
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return doc, nil
	}
	if err != nil {
		return doc, errors.Wrap(err, "read settings")
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, errors.Wrapf(err, "parse %s", f.path)
	}
	return doc, nil
}

func (f *File) write(doc fileDoc) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode settings")
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".settings-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write settings")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close settings")
	}
	return errors.Wrap(os.Rename(tmp.Name(), f.path), "replace settings")
}

func (f *File) LoadSystem() (types.SystemSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return types.SystemSettings{}, err
	}
	if doc.System == nil {
		return types.SystemSettings{}, ErrNotFound
	}
	return *doc.System, nil
}

func (f *File) SaveSystem(s types.SystemSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.System = &s
	return f.write(doc)
}

func (f *File) LoadUser() (types.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return types.UserSettings{}, err
	}
	if doc.User == nil {
		return types.UserSettings{}, ErrNotFound
	}
	return *doc.User, nil
}

func (f *File) SaveUser(u types.UserSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.User = &u
	return f.write(doc)
}
