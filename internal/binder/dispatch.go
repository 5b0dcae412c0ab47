package binder

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
)

// Outcome reports what a dispatch did.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeBuiltin
	OutcomeLaunched
	OutcomeRebound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBuiltin:
		return "builtin"
	case OutcomeLaunched:
		return "launched"
	case OutcomeRebound:
		return "rebound"
	}
	return "none"
}

// dispatcher resolves commands on behalf of one session for one tick.
type dispatcher struct {
	s   *Session
	ctx context.Context
}

func (d *dispatcher) Recording() bool { return d.s.mode == Record }

// Dispatch runs command for k. While recording, every dispatch becomes a
// rebind of k and built-in names are never looked at.
func (d *dispatcher) Dispatch(command string, k *Key) Outcome {
	s := d.s
	if s.mode == Record {
		s.rebind(d.ctx, k)
		return OutcomeRebound
	}

	cmd, err := ParseCommand(command)
	if err != nil {
		log.Warn("ignoring command", "key", k.coord, "err", err)
		return OutcomeNone
	}
	switch c := cmd.(type) {
	case Builtin:
		if err := d.builtin(c, k); err != nil {
			log.Error("builtin failed", "command", c.Name, "key", k.coord, "level", s.level, "err", err)
			return OutcomeNone
		}
		return OutcomeBuiltin
	case External:
		if err := s.opts.Launcher.Start(c.Argv); err != nil {
			log.Error("launch failed", "command", command, "err", err)
			return OutcomeNone
		}
		log.Info("launched", "command", command, "key", k.coord)
		return OutcomeLaunched
	}
	return OutcomeNone
}

func (d *dispatcher) builtin(b Builtin, k *Key) error {
	s := d.s
	switch b.Name {
	case cmdQuit:
		log.Info("quitting", "level", s.level)
		s.quit = true
	case cmdSave:
		return s.Save()
	case cmdRecord:
		log.Info("recording, press a button to bind it", "level", s.level)
		s.mode = Record
	case cmdLoad:
		if len(b.Args) != 1 {
			return fmt.Errorf("load takes one path, got %d arguments", len(b.Args))
		}
		return d.load(b.Args[0], k)
	default:
		return fmt.Errorf("unknown builtin %q", b.Name)
	}
	return nil
}

// load runs a child session on the bindings at path until it terminates. The
// triggering button is rebound in the child so that releasing it returns
// control here.
func (d *dispatcher) load(path string, trigger *Key) error {
	s := d.s
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expanding %s: %w", path, err)
	}

	child := s.newChild(expanded)
	if err := child.Load(); err != nil {
		if rerr := s.resetDisplay(); rerr != nil {
			s.fault = rerr
		}
		return err
	}
	release, _ := trigger.ReleaseCommand()
	if release == "" {
		release = cmdQuit
	}
	child.SetKey(NewKey(trigger.coord, "", &release, ColorReturn))

	log.Info("entering child session", "path", expanded, "level", child.level)
	if err := child.Run(d.ctx); err != nil {
		s.fault = err
		return nil
	}
	if err := s.resetDisplay(); err != nil {
		s.fault = err
		return nil
	}
	log.Info("back from child session", "path", expanded, "level", s.level)
	return nil
}

// rebind asks the operator for new commands and a new color for k, then
// leaves recording mode. Cancelled prompts leave their field unchanged.
func (s *Session) rebind(ctx context.Context, k *Key) {
	log.Info("binding key", "key", k.coord)
	defer func() {
		s.dev.FlushInput()
		s.markAllColorDirty()
		s.mode = Execute
	}()

	var (
		press, release *string
		color          *int
	)
	down, ok, err := s.opts.Prompter.Ask(ctx, "Your down keybinding:")
	if err != nil {
		log.Warn("prompt failed", "err", err)
	} else if ok {
		press = &down
	}

	up, ok, err := s.opts.Prompter.Ask(ctx, "Your release keybinding:")
	if err != nil {
		log.Warn("prompt failed", "err", err)
	} else if ok && up != "" {
		release = &up
	}

	c, ok, err := s.opts.Colors.Choose(ctx, s.dev)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("color pick failed", "err", err)
	} else if ok {
		color = &c
	}

	k.Rebind(press, release, color)
	log.Info("bound key", "key", k.coord, "down", k.press, "color", k.color)
}
