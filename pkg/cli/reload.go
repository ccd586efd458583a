package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const defaultReloadDebounce = 200 * time.Millisecond

// Reloader re-parses the command line whenever the -config file changes, so
// explicit flags keep their precedence over the edited file.
type Reloader struct {
	args     []string
	path     string
	apply    func(*Config)
	debounce time.Duration
	started  chan struct{}
}

func NewReloader(args []string, path string, apply func(*Config)) *Reloader {
	return &Reloader{
		args:     args,
		path:     filepath.Clean(path),
		apply:    apply,
		debounce: defaultReloadDebounce,
		started:  make(chan struct{}),
	}
}

// Start watches the config file's directory until ctx is cancelled. Editors
// often replace the file, so the directory is watched rather than the file.
func (r *Reloader) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(r.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(r.path), err)
	}
	close(r.started)
	log.WithField("file", r.path).Debug("Watching config file")

	timer := time.NewTimer(r.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != r.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			timer.Reset(r.debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Config watcher error")

		case <-timer.C:
			cfg, err := Parse(r.args, io.Discard)
			if err != nil {
				log.WithError(err).WithField("file", r.path).Warn("Ignoring invalid config change")
				continue
			}
			log.WithField("file", r.path).Info("Config file reloaded")
			r.apply(cfg)
		}
	}
}
