// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package avd

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore reads and writes AVD config files.
type FileStore interface {
	// Read returns the file content; exists is false when it is missing.
	Read(path string) (text string, exists bool, err error)
	Write(path, text string) error
}

// OSFiles is the on-disk FileStore.
type OSFiles struct{}

func (OSFiles) Read(path string) (string, bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

// Write replaces path through a temporary sibling so readers never see a
// half-written config.
func (OSFiles) Write(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
