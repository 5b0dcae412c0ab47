package binder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"github.com/chzchzchz/gridbind/internal/launch"
)

// DefaultPollInterval is the minimum time between two loop ticks.
const DefaultPollInterval = 200 * time.Millisecond

// Mode is what a session does with a key transition.
type Mode int

const (
	Execute Mode = iota
	Record
)

func (m Mode) String() string {
	if m == Record {
		return "record"
	}
	return "execute"
}

// Options configures a session and every child it loads.
type Options struct {
	Fs           afero.Fs
	Prompter     Prompter
	Colors       ColorChooser
	Launcher     Launcher
	PollInterval time.Duration
	OpenAttempts uint
	OpenDelay    time.Duration
}

func (o Options) withDefaults() Options {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.PollInterval == 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Prompter == nil {
		o.Prompter = noPrompter{}
	}
	if o.Colors == nil {
		o.Colors = &DevicePicker{Interval: o.PollInterval}
	}
	if o.Launcher == nil {
		o.Launcher = launch.Detached{}
	}
	if o.OpenAttempts == 0 {
		o.OpenAttempts = 1
	}
	if o.OpenDelay == 0 {
		o.OpenDelay = 500 * time.Millisecond
	}
	return o
}

// Session runs one generation of bindings against a device. Only one session
// polls a device at a time; a parent is suspended inside its dispatch while a
// child loaded with "load" runs.
type Session struct {
	opts  Options
	store *Store

	path  string
	dev   Device
	owned bool
	level int

	keys map[Coord]*Key
	mode Mode
	quit bool

	limiter *rate.Limiter
	// fault is set by a dispatch that failed in a way the loop cannot
	// recover from, such as a child session crashing.
	fault error
}

// NewSession returns a root session for the bindings at path. The root
// session opens dev when it starts running and closes it when it stops.
func NewSession(path string, dev Device, opts Options) *Session {
	return newSession(path, dev, opts.withDefaults(), true, 0)
}

func newSession(path string, dev Device, opts Options, owned bool, level int) *Session {
	return &Session{
		opts:    opts,
		store:   NewStore(opts.Fs),
		path:    path,
		dev:     dev,
		owned:   owned,
		level:   level,
		keys:    make(map[Coord]*Key),
		limiter: newLimiter(opts.PollInterval),
	}
}

// newChild returns a session that borrows s's device one level deeper.
func (s *Session) newChild(path string) *Session {
	return newSession(path, s.dev, s.opts, false, s.level+1)
}

func newLimiter(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

func (s *Session) Path() string     { return s.path }
func (s *Session) Level() int       { return s.level }
func (s *Session) Mode() Mode       { return s.mode }
func (s *Session) Terminated() bool { return s.quit }

// Key returns the binding at c.
func (s *Session) Key(c Coord) (*Key, bool) {
	k, ok := s.keys[c]
	return k, ok
}

// SetKey installs k, replacing any binding at the same coordinate.
func (s *Session) SetKey(k *Key) {
	s.keys[k.coord] = k
}

// Load replaces the session's bindings with the content of its bindings file.
func (s *Session) Load() error {
	keys, err := s.store.Load(s.path)
	if err != nil {
		return err
	}
	s.keys = keys
	log.Info("loaded bindings", "path", s.path, "keys", len(keys), "level", s.level)
	return nil
}

// Save writes the bindings to the session's bindings file.
func (s *Session) Save() error {
	return s.SaveTo(s.path)
}

// SaveTo writes the bindings to path.
func (s *Session) SaveTo(path string) error {
	if err := s.store.Save(path, s.keys); err != nil {
		return err
	}
	log.Info("saved bindings", "path", path, "keys", len(s.keys), "level", s.level)
	return nil
}

// Run opens the device if this session owns it and services it until the
// session terminates or ctx is cancelled. Failures inside the loop, panics
// included, are returned as *LoopError.
func (s *Session) Run(ctx context.Context) (err error) {
	if s.owned {
		if err := s.open(); err != nil {
			return err
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = &LoopError{Level: s.level, Err: fmt.Errorf("panic: %v", r)}
		}
		s.cleanup()
	}()

	if err := s.resetDisplay(); err != nil {
		return &LoopError{Level: s.level, Err: err}
	}
	if err := s.refreshColors(); err != nil {
		return &LoopError{Level: s.level, Err: err}
	}
	log.Info("session started", "path", s.path, "level", s.level, "keys", len(s.keys))
	log.Debug("bindings", "level", s.level, "keys", s.String())

	for !s.quit {
		if err := s.limiter.Wait(ctx); err != nil {
			log.Debug("session cancelled", "level", s.level, "err", err)
			break
		}
		if err := s.tick(ctx); err != nil {
			var le *LoopError
			if errors.As(err, &le) {
				return err
			}
			return &LoopError{Level: s.level, Err: err}
		}
	}
	log.Info("session finished", "path", s.path, "level", s.level)
	return nil
}

func (s *Session) open() error {
	err := retry.Do(
		s.dev.Open,
		retry.Attempts(s.opts.OpenAttempts),
		retry.Delay(s.opts.OpenDelay),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("device open failed, retrying", "attempt", n+1, "err", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return nil
}

// tick polls at most one event, then services every pending transition and
// every pending repaint.
func (s *Session) tick(ctx context.Context) error {
	raw, ok, err := s.dev.Poll()
	if err != nil {
		return fmt.Errorf("polling device: %w", err)
	}
	if ok {
		s.handle(raw)
	}

	d := &dispatcher{s: s, ctx: ctx}
	for _, k := range s.sortedKeys() {
		k.DispatchIfDirty(d)
		if s.fault != nil {
			return s.fault
		}
	}
	return s.refreshColors()
}

// refreshColors pushes every pending indicator color.
func (s *Session) refreshColors() error {
	for _, k := range s.sortedKeys() {
		if err := k.RefreshColor(s.dev); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) handle(raw RawEvent) {
	ev, err := NewEvent(raw)
	if err != nil {
		log.Debug("discarding event", "level", s.level, "err", err)
		return
	}
	log.Debug("event", "level", s.level, "event", ev)

	k := s.resolve(ev.Coord)
	if k == nil {
		return
	}
	if ev.IsPress() {
		k.Press()
	} else {
		k.Release()
	}
}

// resolve returns the key at c, creating an unbound one while recording.
func (s *Session) resolve(c Coord) *Key {
	if k, ok := s.keys[c]; ok {
		return k
	}
	if s.mode != Record {
		return nil
	}
	k := NewKey(c, "", nil, ColorNew)
	s.keys[c] = k
	return k
}

func (s *Session) sortedKeys() []*Key {
	keys := make([]*Key, 0, len(s.keys))
	for _, k := range s.keys {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b *Key) int { return compareCoords(a.coord, b.coord) })
	return keys
}

func (s *Session) markAllColorDirty() {
	for _, k := range s.keys {
		k.markColorDirty()
	}
}

// resetDisplay blanks the device and schedules a full repaint.
func (s *Session) resetDisplay() error {
	if err := s.dev.ClearAll(ColorOff); err != nil {
		return fmt.Errorf("clearing device: %w", err)
	}
	s.markAllColorDirty()
	return nil
}

func (s *Session) cleanup() {
	if err := s.dev.ClearAll(ColorOff); err != nil {
		log.Warn("clearing device", "level", s.level, "err", err)
	}
	s.dev.FlushInput()
	if !s.owned {
		return
	}
	if err := s.dev.Close(); err != nil {
		log.Warn("closing device", "err", err)
	}
}

func (s *Session) String() string {
	var b strings.Builder
	b.WriteString("keys:\n")
	for _, k := range s.sortedKeys() {
		b.WriteString("\t" + k.String() + "\n")
	}
	return b.String()
}

type noPrompter struct{}

func (noPrompter) Ask(context.Context, string) (string, bool, error) {
	return "", false, nil
}
