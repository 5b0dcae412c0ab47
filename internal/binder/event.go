package binder

import (
	"fmt"
)

// Action codes reported by the device.
const (
	ActionRelease = 0
	ActionPress   = 127
)

// Navigation buttons used to page the color picker.
var (
	leftNav  = Coord{X: 2, Y: 0}
	rightNav = Coord{X: 3, Y: 0}
)

// RawEvent is one unvalidated poll result from a Device.
type RawEvent struct {
	X, Y int
	Code int
}

// Event is a validated button event. It is never mutated.
type Event struct {
	Coord  Coord
	Action int
}

// NewEvent validates a raw poll result.
func NewEvent(raw RawEvent) (Event, error) {
	c := Coord{X: raw.X, Y: raw.Y}
	if !c.Valid() {
		return Event{}, fmt.Errorf("%w: coordinate (%d,%d)", ErrInvalidEvent, raw.X, raw.Y)
	}
	if raw.Code != ActionPress && raw.Code != ActionRelease {
		return Event{}, fmt.Errorf("%w: action code %d", ErrInvalidEvent, raw.Code)
	}
	return Event{Coord: c, Action: raw.Code}, nil
}

func (e Event) IsPress() bool    { return e.Action == ActionPress }
func (e Event) IsRelease() bool  { return e.Action == ActionRelease }
func (e Event) IsLeftNav() bool  { return e.Coord == leftNav }
func (e Event) IsRightNav() bool { return e.Coord == rightNav }

func (e Event) String() string {
	state := "up"
	if e.IsPress() {
		state = "down"
	}
	return fmt.Sprintf("%d,%d: %s", e.Coord.X, e.Coord.Y, state)
}
