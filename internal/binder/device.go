package binder

import "context"

// Palette codes the engine itself uses.
const (
	ColorOff    = 0
	ColorReturn = 10
	ColorNew    = 17
)

// Device is the grid controller. Poll must not block; ok is false when no
// event is pending.
type Device interface {
	Open() error
	Close() error
	Poll() (ev RawEvent, ok bool, err error)
	SetIndicator(x, y, color int) error
	ClearAll(color int) error
	FlushInput()
}

// Prompter asks the operator for one line of text. ok is false when the
// prompt was cancelled.
type Prompter interface {
	Ask(ctx context.Context, label string) (text string, ok bool, err error)
}

// ColorChooser asks the operator for a palette code.
type ColorChooser interface {
	Choose(ctx context.Context, dev Device) (color int, ok bool, err error)
}

// Launcher starts a detached process and returns without waiting for it.
type Launcher interface {
	Start(argv []string) error
}
