package earlystop

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

// Event reports a completed write to the watched file.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher watches one directory and delivers an Event on a channel for every completed
// write to one file in it. Writers replace the file with a rename, which fsnotify reports as
// a Create on the target name; in-place writes are reported as Write.
type Watcher struct {
	fw     *fsnotify.Watcher
	target string

	events chan Event
	errs   chan error
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewWatcher starts watching dir for writes to the file named name.
func NewWatcher(dir, name string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewIOFailure("watch", dir, err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, errors.NewIOFailure("watch", dir, err)
	}

	w := &Watcher{
		fw:     fw,
		target: name,
		events: make(chan Event, 64),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Events delivers one Event per completed write.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors delivers watch errors. Delivery is best effort; errors are dropped while an earlier
// one is still unread.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watch and waits for the delivery goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != w.target {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			select {
			case w.events <- Event{Path: ev.Name, Op: ev.Op}:
			case <-w.done:
				return
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}
