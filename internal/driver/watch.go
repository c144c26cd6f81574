package driver

import (
	"context"
	"fmt"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fsnotify/fsnotify"

	"strata/internal/config"
)

// Watch compiles every file in paths, then recompiles a file each time it
// is written or recreated, until ctx is done. Directories are watched
// rather than files so editors that replace files on save are followed.
func Watch(ctx context.Context, paths []string, cfg *config.Config, onResult func(*Result)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	files := mapset.NewThreadUnsafeSet[string]()
	dirs := mapset.NewThreadUnsafeSet[string]()
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files.Add(abs)
		if dir := filepath.Dir(abs); dirs.Add(dir) {
			if err := w.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
	}

	compile := func(path string) error {
		res, err := CompileFile(ctx, path, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Errorf("%s", err)
			return nil
		}
		onResult(res)
		return nil
	}
	for _, p := range paths {
		abs, _ := filepath.Abs(p)
		if err := compile(abs); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !files.Contains(ev.Name) {
				continue
			}
			log.Debugf("%s changed", ev.Name)
			if err := compile(ev.Name); err != nil {
				return nil
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warningf("watch: %s", err)
		}
	}
}
