package sheets

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/mesh-intelligence/assetcsv/internal/csvio"
	"github.com/mesh-intelligence/assetcsv/internal/logging"
)

// Watch imports sheets of typeName as they change on disk until ctx is
// cancelled. Events are collected for Options.Debounce and each changed
// sheet is imported once. Writes made by Export are recognized by content
// and do not trigger an import. Import failures are logged and reported to
// Options.OnImport; they do not stop the watch.
//
// Watch needs the OS file system since fsnotify observes real directories.
func (s *Service) Watch(ctx context.Context, typeName string) error {
	if _, err := s.reg.Lookup(typeName); err != nil {
		return err
	}
	dir := s.SheetDir(typeName)
	if err := csvio.EnsureDir(s.fs, dir); err != nil {
		return err
	}

	ctx = logging.NewContext(ctx, logging.WithFields(s.withLogger(ctx), "type", typeName))
	log := logging.FromContext(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := s.addWatches(ctx, w, dir); err != nil {
		return err
	}
	s.seedHashes(dir)

	log.Info("watching sheets",
		"dir", dir,
		"pattern", s.opts.pattern(),
		"debounce", s.opts.debounce())

	ticker := time.NewTicker(s.opts.debounce())
	defer ticker.Stop()

	pending := make(map[string]fsnotify.Op)
	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := s.addWatches(ctx, w, event.Name); err != nil {
						log.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if s.matches(dir, event.Name) {
				pending[event.Name] |= event.Op
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher error", "error", err)

		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
			batch := pending
			pending = make(map[string]fsnotify.Op)
			s.flush(ctx, typeName, batch)
		}
	}
}

// flush imports every sheet in batch whose content changed.
func (s *Service) flush(ctx context.Context, typeName string, batch map[string]fsnotify.Op) {
	log := logging.FromContext(ctx)
	for _, path := range sortedPaths(batch) {
		if ctx.Err() != nil {
			return
		}
		if batch[path].Has(fsnotify.Remove) || batch[path].Has(fsnotify.Rename) {
			if _, err := s.fs.Stat(path); errors.Is(err, fs.ErrNotExist) {
				log.Debug("sheet removed", "path", path)
				continue
			}
		}
		data, err := csvio.ReadFile(s.fs, path)
		if err != nil {
			log.Warn("failed to read changed sheet", "path", path, "error", err)
			continue
		}
		if !s.changed(path, data) {
			log.Debug("sheet content unchanged", "path", path)
			continue
		}

		report, err := s.ImportFile(ctx, typeName, path)
		if err != nil {
			log.Error("watch import failed", "path", path, "error", err)
		}
		if s.opts.OnImport != nil {
			s.opts.OnImport(report, err)
		}
	}
}

// matches reports whether path is a sheet Import would read.
func (s *Service) matches(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	base := filepath.Base(rel)
	if strings.HasPrefix(base, ".") {
		return false // atomic-write temp files
	}
	ok, err := doublestar.Match(s.opts.pattern(), filepath.ToSlash(rel))
	return err == nil && ok
}

// addWatches watches root and its non-hidden subdirectories.
func (s *Service) addWatches(ctx context.Context, w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return err
		}
		logging.FromContext(ctx).Debug("watching directory", "path", path)
		return nil
	})
}

// seedHashes records the current content of existing sheets so the first
// events after startup only import real edits.
func (s *Service) seedHashes(dir string) {
	files, err := csvio.ListFiles(s.fs, dir, s.opts.pattern())
	if err != nil {
		return
	}
	for _, f := range files {
		if data, err := csvio.ReadFile(s.fs, f); err == nil {
			s.changed(f, data)
		}
	}
}

func sortedPaths(m map[string]fsnotify.Op) []string {
	out := make([]string, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
