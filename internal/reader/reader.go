package reader

import "time"

// Terminal is the terminal-mode collaborator the reader needs for recovery.
type Terminal interface {
	// Fd returns the descriptor bytes are read from.
	Fd() int
	// SetBlocking clears non-blocking mode on the descriptor.
	SetBlocking() error
	// Reattach makes the process the terminal's foreground group again.
	Reattach() error
}

// Refresher redraws the display after callbacks that invalidated it.
type Refresher interface {
	NeedsRefresh() bool
	Refresh()
}

// Logger is the logging surface used by the reader.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Reader reads bytes and characters from the terminal.
type Reader struct {
	cfg       Config
	term      Terminal
	intr      *Interrupt
	pushback  Pushback
	sched     *Scheduler
	watches   WatchSet
	onWatch   WatchHandler
	refresher Refresher
	logger    Logger
	dec       *charDecoder

	last          int
	lastRune      rune
	lastRuneValid bool
}

// Option configures a Reader.
type Option func(*Reader)

// WithClock sets the clock used by the scheduler.
func WithClock(c Clock) Option {
	return func(r *Reader) {
		r.sched = NewScheduler(c)
	}
}

// WithWatchHandler sets the function invoked for ready watched descriptors.
func WithWatchHandler(h WatchHandler) Option {
	return func(r *Reader) {
		r.onWatch = h
	}
}

// WithRefresher sets the display refresher.
func WithRefresher(f Refresher) Option {
	return func(r *Reader) {
		r.refresher = f
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a reader on term. intr may be nil, in which case
// interrupts cannot abort a wait.
func New(term Terminal, intr *Interrupt, cfg Config, opts ...Option) (*Reader, error) {
	dec, err := newCharDecoder(cfg.Charset)
	if err != nil {
		return nil, err
	}
	if cfg.MaxEOFRetries <= 0 {
		cfg.MaxEOFRetries = DefaultMaxEOFRetries
	}
	if cfg.ContinuationTimeout <= 0 {
		cfg.ContinuationTimeout = DefaultKeyTimeout
	}
	r := &Reader{
		cfg:    cfg,
		term:   term,
		intr:   intr,
		logger: nopLogger{},
		dec:    dec,
		last:   EOF,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sched == nil {
		r.sched = NewScheduler(nil)
	}
	return r, nil
}

// Config returns the reader's configuration.
func (r *Reader) Config() Config {
	return r.cfg
}

// SetKeyTimeout changes the configured key timeout.
func (r *Reader) SetKeyTimeout(d time.Duration) {
	r.cfg.KeyTimeout = d
}

// SetIgnoreEOF changes EOF handling for subsequent reads.
func (r *Reader) SetIgnoreEOF(ignore bool) {
	r.cfg.IgnoreEOF = ignore
}

// SetCharset switches the input character set and resets the decode state.
func (r *Reader) SetCharset(charset string) error {
	dec, err := newCharDecoder(charset)
	if err != nil {
		return err
	}
	r.dec = dec
	r.cfg.Charset = charset
	return nil
}

// SetMultibyte toggles multibyte assembly.
func (r *Reader) SetMultibyte(on bool) {
	r.cfg.Multibyte = on
	r.dec.reset()
}

// SetRefresher replaces the display refresher.
func (r *Reader) SetRefresher(f Refresher) {
	r.refresher = f
}

// SetWatchHandler replaces the watched-descriptor handler.
func (r *Reader) SetWatchHandler(h WatchHandler) {
	r.onWatch = h
}

// Interrupt returns the interrupt the reader polls, or nil.
func (r *Reader) Interrupt() *Interrupt {
	return r.intr
}

// Scheduler returns the scheduled-callback set.
func (r *Reader) Scheduler() *Scheduler {
	return r.sched
}

// Schedule registers action to run once due has passed.
func (r *Reader) Schedule(due time.Time, action func()) CallbackID {
	return r.sched.Add(due, action)
}

// Watches returns the watched-descriptor set.
func (r *Reader) Watches() *WatchSet {
	return &r.watches
}

// Watch registers fd with the named handler. A registration made while
// handlers are running takes effect from the next pass.
func (r *Reader) Watch(fd int, handler string) {
	r.watches.Add(fd, handler)
}

// Unwatch unregisters fd.
func (r *Reader) Unwatch(fd int) bool {
	return r.watches.Remove(fd)
}

// PushBack queues p to be read before live input, in order.
func (r *Reader) PushBack(p []byte) {
	r.pushback.PushBytes(p)
}

// PushByte queues a single byte to be read next.
func (r *Reader) PushByte(b byte) {
	r.pushback.Push(b)
}

// Pending returns the number of pushed-back bytes.
func (r *Reader) Pending() int {
	return r.pushback.Len()
}

// ClearPending discards pushed-back bytes.
func (r *Reader) ClearPending() {
	r.pushback.Clear()
}

// LastByte returns the byte most recently returned by GetByte, or EOF.
func (r *Reader) LastByte() int {
	return r.last
}

// SetLastByte overrides the last byte, as when bytes read past the end of
// a key sequence are pushed back.
func (r *Reader) SetLastByte(c int) {
	r.last = c
}

// LastRune returns the last assembled character. It is invalid once a
// byte has been read after the character was completed.
func (r *Reader) LastRune() (rune, bool) {
	return r.lastRune, r.lastRuneValid
}

func (r *Reader) refreshIfNeeded() {
	if r.refresher != nil && r.refresher.NeedsRefresh() {
		r.refresher.Refresh()
	}
}
