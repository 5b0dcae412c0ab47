package device

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gvalkov/golang-evdev"

	"github.com/chzchzchz/gridbind/internal/binder"
)

const devInputPath = "/dev/input/by-id"

// keypadRows lays a keyboard-style macro pad over the grid, one row of keys
// per grid row. The arrows form the top row like on a Launchpad.
var keypadRows = [][]int{
	{evdev.KEY_UP, evdev.KEY_DOWN, evdev.KEY_LEFT, evdev.KEY_RIGHT},
	{evdev.KEY_1, evdev.KEY_2, evdev.KEY_3, evdev.KEY_4, evdev.KEY_5, evdev.KEY_6, evdev.KEY_7, evdev.KEY_8},
	{evdev.KEY_Q, evdev.KEY_W, evdev.KEY_E, evdev.KEY_R, evdev.KEY_T, evdev.KEY_Y, evdev.KEY_U, evdev.KEY_I},
	{evdev.KEY_A, evdev.KEY_S, evdev.KEY_D, evdev.KEY_F, evdev.KEY_G, evdev.KEY_H, evdev.KEY_J, evdev.KEY_K},
	{evdev.KEY_Z, evdev.KEY_X, evdev.KEY_C, evdev.KEY_V, evdev.KEY_B, evdev.KEY_N, evdev.KEY_M, evdev.KEY_COMMA},
}

var ev2coord = func() map[int]binder.Coord {
	m := make(map[int]binder.Coord)
	for y, row := range keypadRows {
		for x, code := range row {
			m[code] = binder.Coord{X: x, Y: y}
		}
	}
	return m
}()

// keyToRaw translates one evdev key event. Autorepeat is dropped so a held
// key is a single press.
func keyToRaw(scancode uint16, state evdev.KeyEventState) (binder.RawEvent, bool) {
	c, ok := ev2coord[int(scancode)]
	if !ok {
		return binder.RawEvent{}, false
	}
	switch state {
	case evdev.KeyDown:
		return binder.RawEvent{X: c.X, Y: c.Y, Code: binder.ActionPress}, true
	case evdev.KeyUp:
		return binder.RawEvent{X: c.X, Y: c.Y, Code: binder.ActionRelease}, true
	}
	return binder.RawEvent{}, false
}

// Keypad drives an evdev keyboard or macro pad, grabbed exclusively so its
// keys do not also type into the desktop. It has no per-key lights; the
// indicator colors are only kept in memory.
type Keypad struct {
	path string

	mu   sync.Mutex
	kbd  *evdev.InputDevice
	leds map[binder.Coord]int
	q    *queue
	done chan struct{}
	wg   sync.WaitGroup
}

// NewKeypad returns a driver for path; a bare name is looked up under
// /dev/input/by-id.
func NewKeypad(path string) *Keypad {
	if path != "" && path[0] != '/' {
		path = filepath.Join(devInputPath, filepath.Base(path))
	}
	return &Keypad{path: path, leds: make(map[binder.Coord]int), q: newQueue()}
}

func (kp *Keypad) attach() (*evdev.InputDevice, error) {
	kbd, err := evdev.Open(kp.path)
	if err != nil {
		return nil, err
	}
	if err := kbd.Grab(); err != nil {
		kbd.File.Close()
		return nil, err
	}
	log.Info("attached", "path", kp.path, "name", kbd.Name)
	return kbd, nil
}

func (kp *Keypad) Open() error {
	if kp.path == "" {
		return errors.New("no keypad device configured")
	}
	kbd, err := kp.attach()
	if err != nil {
		return err
	}
	done := make(chan struct{})
	kp.mu.Lock()
	kp.kbd = kbd
	kp.done = done
	kp.mu.Unlock()

	kp.wg.Add(1)
	go kp.readLoop(kbd, done)
	return nil
}

func (kp *Keypad) readLoop(kbd *evdev.InputDevice, done chan struct{}) {
	defer kp.wg.Done()
	for {
		err := kp.read(kbd)
		select {
		case <-done:
			return
		default:
		}
		log.Warn("lost device", "path", kp.path, "err", err)
		kp.mu.Lock()
		kp.kbd = nil
		kp.mu.Unlock()
		kbd.File.Close()

		kbd, err = reattach(done, kp.path, kp.attach)
		if err != nil {
			if !errors.Is(err, errClosed) {
				log.Error("giving up on device", "path", kp.path, "err", err)
			}
			return
		}
		kp.mu.Lock()
		select {
		case <-done:
			kp.mu.Unlock()
			kbd.Release()
			kbd.File.Close()
			return
		default:
		}
		kp.kbd = kbd
		kp.mu.Unlock()
	}
}

func (kp *Keypad) read(kbd *evdev.InputDevice) error {
	for {
		ev, err := kbd.ReadOne()
		if err != nil {
			return err
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		keyev := evdev.NewKeyEvent(ev)
		if raw, ok := keyToRaw(keyev.Scancode, keyev.State); ok {
			kp.q.push(raw)
		}
	}
}

func (kp *Keypad) Close() error {
	kp.mu.Lock()
	kbd := kp.kbd
	if kp.done != nil {
		close(kp.done)
		kp.done = nil
	}
	kp.kbd = nil
	kp.mu.Unlock()

	var err error
	if kbd != nil {
		kbd.Release()
		err = kbd.File.Close()
	}
	kp.wg.Wait()
	return err
}

func (kp *Keypad) Poll() (binder.RawEvent, bool, error) {
	ev, ok := kp.q.poll()
	return ev, ok, nil
}

func (kp *Keypad) SetIndicator(x, y, color int) error {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	kp.leds[binder.Coord{X: x, Y: y}] = color
	return nil
}

func (kp *Keypad) ClearAll(color int) error {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	for c := range kp.leds {
		kp.leds[c] = color
	}
	return nil
}

func (kp *Keypad) FlushInput() { kp.q.flush() }

// Indicator returns the color last set for (x, y).
func (kp *Keypad) Indicator(x, y int) int {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	return kp.leds[binder.Coord{X: x, Y: y}]
}
