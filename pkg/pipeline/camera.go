package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileSource is a library-style capture source: the user already picked a
// concrete file.
type FileSource string

func (f FileSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(string(f)); err != nil {
		return "", err
	}
	return string(f), nil
}

// SpoolSource is a camera-style capture source for headless hosts: it waits
// for the next image file to appear in a spool directory (where an external
// camera process drops captures). Files are debounced so a capture still
// being written is not picked up half-finished.
type SpoolSource struct {
	Dir    string
	Settle time.Duration // quiet period before a new file counts as complete
}

func NewSpoolSource(dir string) *SpoolSource {
	return &SpoolSource{Dir: dir, Settle: 300 * time.Millisecond}
}

// Next blocks until a new image file lands in the spool directory and is
// stable, or ctx expires.
func (s *SpoolSource) Next(ctx context.Context) (string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return "", err
	}
	defer w.Close()
	if err := w.Add(s.Dir); err != nil {
		return "", err
	}

	settle := s.Settle
	if settle <= 0 {
		settle = 300 * time.Millisecond
	}
	pending := map[string]time.Time{}
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return "", errors.New("spool watcher closed")
			}
			if ev.Op&fsnotify.Create == fsnotify.Create || ev.Op&fsnotify.Write == fsnotify.Write {
				if isImageFile(ev.Name) {
					pending[ev.Name] = time.Now()
				}
			}
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > settle { // stable
					return name, nil
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return "", errors.New("spool watcher closed")
			}
			return "", err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}
