package binder

import (
	"fmt"
)

// KeyState is the physical state of a button.
type KeyState int

const (
	Up KeyState = iota
	Down
)

func (s KeyState) String() string {
	if s == Down {
		return "down"
	}
	return "up"
}

// Dispatcher runs the command bound to a key transition.
type Dispatcher interface {
	Dispatch(command string, k *Key) Outcome
	Recording() bool
}

// Key is the binding of one grid button. It records press/release edges and
// fires each of them exactly once through DispatchIfDirty.
type Key struct {
	coord Coord

	press   string
	release *string
	color   int

	state      KeyState
	dirtyExec  bool
	dirtyColor bool
}

// NewKey returns a key that will paint itself on the next refresh. A nil
// release means the key has no release action.
func NewKey(c Coord, press string, release *string, color int) *Key {
	return &Key{
		coord:      c,
		press:      press,
		release:    release,
		color:      color,
		dirtyColor: true,
	}
}

func (k *Key) Coord() Coord         { return k.coord }
func (k *Key) PressCommand() string { return k.press }
func (k *Key) Color() int           { return k.color }
func (k *Key) State() KeyState      { return k.state }

// ReleaseCommand returns the release command and whether one is set at all.
func (k *Key) ReleaseCommand() (string, bool) {
	if k.release == nil {
		return "", false
	}
	return *k.release, true
}

func (k *Key) Press() {
	k.state = Down
	k.dirtyExec = true
}

func (k *Key) Release() {
	k.state = Up
	k.dirtyExec = true
}

// DispatchIfDirty services the last recorded transition, if any. The dirty
// flag is cleared before the dispatcher runs so a dispatch that re-enters the
// loop (load) can never fire the same edge again.
func (k *Key) DispatchIfDirty(d Dispatcher) bool {
	if !k.dirtyExec {
		return false
	}
	k.dirtyExec = false

	if d.Recording() {
		// Recording captures presses only; the release of whatever
		// button started the recording must not be taken as the target.
		if k.state != Down {
			return false
		}
		return d.Dispatch(k.press, k) != OutcomeNone
	}

	cmd := k.press
	if k.state == Up {
		cmd, _ = k.ReleaseCommand()
	}
	if cmd == "" {
		return false
	}
	return d.Dispatch(cmd, k) != OutcomeNone
}

// RefreshColor pushes the indicator color if it changed since the last refresh.
func (k *Key) RefreshColor(dev Device) error {
	if !k.dirtyColor {
		return nil
	}
	if err := dev.SetIndicator(k.coord.X, k.coord.Y, k.color); err != nil {
		return fmt.Errorf("painting %s: %w", k.coord, err)
	}
	k.dirtyColor = false
	return nil
}

// Rebind updates the given fields; nil leaves a field unchanged.
func (k *Key) Rebind(press, release *string, color *int) {
	if press != nil {
		k.press = *press
	}
	if release != nil {
		r := *release
		k.release = &r
	}
	if color != nil {
		k.color = *color
		k.dirtyColor = true
	}
}

func (k *Key) markColorDirty() { k.dirtyColor = true }

func (k *Key) String() string {
	return fmt.Sprintf("%d,%d:\t%s\t%d", k.coord.X, k.coord.Y, k.press, k.color)
}
