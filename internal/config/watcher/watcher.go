// Package watcher reports changes to configuration files.
//
// Changes are collected by a goroutine and announced through a pipe, so
// the editor can watch the pipe's read end between keystrokes and reload
// on its own thread. Directories are watched rather than the files
// themselves, which keeps working when an editor replaces a file by
// renaming a new one over it.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned by operations on a closed watcher.
var ErrClosed = errors.New("watcher: closed")

// Event is a change to a watched file.
type Event struct {
	Path string
	Op   Operation
	Time time.Time
}

// Operation is the kind of change.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates the file was created.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed away.
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Watcher watches a set of files.
type Watcher struct {
	mu sync.Mutex

	fsw      *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]int
	pending  map[string]Event
	debounce time.Duration
	timer    *time.Timer
	signaled bool
	closed   bool
	errs     []error

	r, w *os.File
	wg   sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// DefaultDebounce is how long changes must settle before they are announced.
const DefaultDebounce = 100 * time.Millisecond

// WithDebounce sets how long changes must settle before they are
// announced. Editors often write a file in several steps.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher and starts its event goroutine.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	r, pw, err := os.Pipe()
	if err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
		pending:  make(map[string]Event),
		debounce: DefaultDebounce,
		r:        r,
		w:        pw,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Fd returns the descriptor that becomes readable when changes are
// waiting in Drain.
func (w *Watcher) Fd() int {
	return int(w.r.Fd())
}

// Watch adds path. The file need not exist yet; its directory must.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.files[abs] {
		return nil
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[abs] = true
	return nil
}

// Unwatch removes path.
func (w *Watcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if !w.files[abs] {
		return nil
	}
	delete(w.files, abs)
	dir := filepath.Dir(abs)
	if w.dirs[dir]--; w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		return w.fsw.Remove(dir)
	}
	return nil
}

// Files returns the watched paths, sorted.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Drain returns the settled changes, sorted by path, and any errors the
// underlying watcher reported since the last call. It does not block.
func (w *Watcher) Drain() ([]Event, []error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.signaled {
		var b [1]byte
		_, _ = w.r.Read(b[:])
		w.signaled = false
	}
	events := make([]Event, 0, len(w.pending))
	for _, ev := range w.pending {
		events = append(events, ev)
	}
	clear(w.pending)
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	errs := w.errs
	w.errs = nil
	return events, errs
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	w.w.Close()
	w.r.Close()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.record(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.errs = append(w.errs, err)
			w.signalLocked()
			w.mu.Unlock()
		}
	}
}

func (w *Watcher) record(ev fsnotify.Event) {
	op, ok := operation(ev.Op)
	if !ok {
		return
	}
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || !w.files[path] {
		return
	}
	w.pending[path] = coalesce(w.pending[path], Event{Path: path, Op: op, Time: time.Now()})

	if w.debounce == 0 {
		w.signalLocked()
		return
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.settled)
	} else {
		w.timer.Reset(w.debounce)
	}
}

func (w *Watcher) settled() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed && len(w.pending) > 0 {
		w.signalLocked()
	}
}

// signalLocked makes the pipe readable once per batch.
func (w *Watcher) signalLocked() {
	if w.signaled || w.closed {
		return
	}
	w.signaled = true
	_, _ = w.w.Write([]byte{1})
}

func operation(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	}
	return 0, false
}

// coalesce folds a new change into a pending one: a removal wins, a
// creation followed by writes stays a creation, and a file that comes
// back after a removal or rename was written.
func coalesce(prev, next Event) Event {
	if prev.Path == "" {
		return next
	}
	switch {
	case next.Op == OpRemove || next.Op == OpRename:
	case prev.Op == OpCreate && next.Op == OpWrite:
		next.Op = OpCreate
	case (prev.Op == OpRemove || prev.Op == OpRename) && next.Op == OpCreate:
		next.Op = OpWrite
	}
	return next
}
