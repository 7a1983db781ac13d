package build

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stuckyb/ontobuilder/internal/config"
	"github.com/stuckyb/ontobuilder/internal/logging"
)

// watchDebounce is how long the watcher waits after the last file event
// before rebuilding, so editors that write in bursts trigger one build.
const watchDebounce = 500 * time.Millisecond

// Watch rebuilds whenever a project source file changes: the config file,
// the base ontology, any term table, or anything in the imports directory.
// It blocks until the context is cancelled. Build failures are logged and
// watching continues.
func Watch(ctx context.Context, cfg *config.Config, rebuild func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dirs := map[string]bool{
		cfg.ProjectDir():                     true,
		filepath.Dir(cfg.BaseOntologyPath()): true,
		cfg.ImportsDirPath():                 true,
	}
	if termsPaths, err := cfg.TermsFilePaths(); err == nil {
		for _, p := range termsPaths {
			dirs[filepath.Dir(p)] = true
		}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logging.BuildWarn("cannot watch %s: %v", dir, err)
		}
	}

	var pending *time.Timer
	fire := make(chan struct{}, 1)
	schedule := func() {
		if pending != nil {
			pending.Stop()
		}
		pending = time.AfterFunc(watchDebounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	logging.Build("watching %d director(ies) for changes", len(dirs))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Ignore build products landing in a watched directory, or an
			// in-source build would rebuild forever.
			if filepath.Dir(event.Name) == cfg.BuildDirPath() && event.Name != cfg.BaseOntologyPath() {
				continue
			}
			logging.BuildDebug("source change: %s (%s)", event.Name, event.Op)
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.BuildWarn("watch error: %v", err)
		case <-fire:
			if err := rebuild(); err != nil {
				logging.BuildError("rebuild failed: %v", err)
			}
		}
	}
}
