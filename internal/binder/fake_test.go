package binder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	events  []RawEvent
	openErr error
	pollErr error

	opened  int
	closed  int
	flushes int
	clears  []int
	painted map[Coord]int
	paints  map[Coord]int
	history []paint
}

type paint struct {
	at    Coord
	color int
}

// colorsAt lists every color ever pushed to c, oldest first.
func (d *fakeDevice) colorsAt(c Coord) []int {
	var colors []int
	for _, p := range d.history {
		if p.at == c {
			colors = append(colors, p.color)
		}
	}
	return colors
}

func newFakeDevice(events ...RawEvent) *fakeDevice {
	return &fakeDevice{
		events:  events,
		painted: make(map[Coord]int),
		paints:  make(map[Coord]int),
	}
}

func (d *fakeDevice) Open() error {
	if d.openErr != nil {
		return d.openErr
	}
	d.opened++
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed++
	return nil
}

func (d *fakeDevice) Poll() (RawEvent, bool, error) {
	if d.pollErr != nil {
		return RawEvent{}, false, d.pollErr
	}
	if len(d.events) == 0 {
		return RawEvent{}, false, nil
	}
	ev := d.events[0]
	d.events = d.events[1:]
	return ev, true, nil
}

func (d *fakeDevice) SetIndicator(x, y, color int) error {
	c := Coord{X: x, Y: y}
	d.painted[c] = color
	d.paints[c]++
	d.history = append(d.history, paint{at: c, color: color})
	return nil
}

func (d *fakeDevice) ClearAll(color int) error {
	d.clears = append(d.clears, color)
	clear(d.painted)
	return nil
}

func (d *fakeDevice) FlushInput() { d.flushes++ }

type fakeLauncher struct {
	started [][]string
	err     error
	panics  bool
	onStart func()
}

func (l *fakeLauncher) Start(argv []string) error {
	if l.panics {
		panic("launcher exploded")
	}
	if l.onStart != nil {
		l.onStart()
	}
	if l.err != nil {
		return l.err
	}
	l.started = append(l.started, argv)
	return nil
}

type answer struct {
	text string
	ok   bool
}

type fakePrompter struct {
	answers []answer
	asked   []string
}

func (p *fakePrompter) Ask(_ context.Context, label string) (string, bool, error) {
	p.asked = append(p.asked, label)
	if len(p.answers) == 0 {
		return "", false, nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a.text, a.ok, nil
}

type fakeColors struct {
	color int
	ok    bool
	calls int
}

func (c *fakeColors) Choose(context.Context, Device) (int, bool, error) {
	c.calls++
	return c.color, c.ok, nil
}

// recorder is a Dispatcher that only records what it was asked to run.
type recorder struct {
	recording bool
	commands  []string
}

func (r *recorder) Dispatch(command string, _ *Key) Outcome {
	r.commands = append(r.commands, command)
	return OutcomeLaunched
}

func (r *recorder) Recording() bool { return r.recording }

func press(x, y int) RawEvent   { return RawEvent{X: x, Y: y, Code: ActionPress} }
func release(x, y int) RawEvent { return RawEvent{X: x, Y: y, Code: ActionRelease} }

func strPtr(s string) *string { return &s }

type harness struct {
	fs       afero.Fs
	dev      *fakeDevice
	launcher *fakeLauncher
	prompter *fakePrompter
	colors   *fakeColors
}

func newHarness(t *testing.T, events ...RawEvent) *harness {
	t.Helper()
	return &harness{
		fs:       afero.NewMemMapFs(),
		dev:      newFakeDevice(events...),
		launcher: &fakeLauncher{},
		prompter: &fakePrompter{},
		colors:   &fakeColors{},
	}
}

func (h *harness) options() Options {
	return Options{
		Fs:           h.fs,
		Prompter:     h.prompter,
		Colors:       h.colors,
		Launcher:     h.launcher,
		PollInterval: time.Microsecond,
		OpenAttempts: 1,
		OpenDelay:    time.Millisecond,
	}
}

func (h *harness) writeBindings(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(h.fs, path, []byte(content), 0o644))
}

// session loads path into a new root session.
func (h *harness) session(t *testing.T, path string) *Session {
	t.Helper()
	s := NewSession(path, h.dev, h.options())
	require.NoError(t, s.Load())
	return s
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func runWithTimeout(t *testing.T, s *Session) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Run(ctx)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatal("session did not terminate")
	}
	return err
}
