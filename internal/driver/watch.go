package driver

import (
	"context"
	"io"
	"path/filepath"

	"github.com/containerd/log"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watch compiles every path once, then again each time one of them is
// written or replaced, until ctx is done. Compile errors are logged and
// do not stop the watch.
func (d *Driver) Watch(ctx context.Context, paths []string, out, dump io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer w.Close()

	// Editors often replace files, so watch the directories and filter.
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
		dirs[dir] = true
	}

	rebuild := func(path string) {
		if err := d.Run(ctx, []string{path}, out, dump); err != nil {
			log.G(ctx).WithError(err).WithField("file", path).Error("compile failed")
		}
	}
	for _, p := range paths {
		rebuild(p)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !watched[abs] {
				continue
			}
			log.G(ctx).WithField("file", ev.Name).Debug("changed")
			rebuild(ev.Name)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.G(ctx).WithError(err).Warn("watch error")
		}
	}
}
