// Package watch re-renders a directory tree whenever something under it
// changes. It backs the --watch flag: render once, then redraw on every
// filesystem event until interrupted.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"larch/internal/log"
)

// Watcher monitors a directory tree for changes using fsnotify. Events are
// debounced so a burst of writes triggers one redraw.
type Watcher struct {
	root      string
	fsWatcher *fsnotify.Watcher
	events    chan struct{}
	stopChan  chan struct{}
	stopOnce  sync.Once
	debounce  time.Duration
}

// New creates a watcher over root and registers every directory currently
// beneath it. Directories created later are registered as their create
// events arrive.
func New(root string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:      root,
		fsWatcher: fsWatcher,
		events:    make(chan struct{}, 1),
		stopChan:  make(chan struct{}),
		debounce:  250 * time.Millisecond,
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Warnf("watch: skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if err := fsWatcher.Add(path); err != nil {
				log.Warnf("watch: cannot watch %s: %v", path, err)
			}
		}
		return nil
	})
	if err != nil {
		fsWatcher.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// Events returns a channel that receives one signal per debounced batch of
// filesystem changes.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.fsWatcher.Close()
	})
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				// new directories need their own watch registration
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.fsWatcher.Add(event.Name); err != nil {
						log.Warnf("watch: cannot watch %s: %v", event.Name, err)
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warnf("watch: %v", err)
		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.events <- struct{}{}:
			default:
			}
		}
	}
}
