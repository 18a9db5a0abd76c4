// Package runfile keeps ghost runs as JSON files on local disk so they can be
// shared and compared offline.
package runfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"spindoctor/internal/ghost"
)

const ext = ".json"

// Read loads and validates one run file.
func Read(path string) (ghost.Run, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ghost.Run{}, err
	}
	run, err := ghost.DecodeRun(raw)
	if err != nil {
		return ghost.Run{}, fmt.Errorf("%s: %w", path, err)
	}
	return run, nil
}

// Write stores run at path, replacing any existing file atomically.
func Write(path string, run ghost.Run) error {
	raw, err := ghost.EncodeRun(run)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".run-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Save writes run into dir as <id>.json and returns the path.
func Save(dir string, run ghost.Run) (string, error) {
	id := strings.TrimSpace(run.ID)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("run id %q cannot be used as a file name", run.ID)
	}
	path := filepath.Join(dir, id+ext)
	if err := Write(path, run); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the run files in dir sorted by name. A missing dir is empty.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
