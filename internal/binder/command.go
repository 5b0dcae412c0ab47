package binder

import (
	"fmt"

	"github.com/google/shlex"
)

// Names of the commands handled by the engine itself.
const (
	cmdQuit   = "quit"
	cmdSave   = "save"
	cmdRecord = "record"
	cmdLoad   = "load"
)

var builtinNames = map[string]bool{
	cmdQuit:   true,
	cmdSave:   true,
	cmdRecord: true,
	cmdLoad:   true,
}

// Command is either a Builtin or an External command line.
type Command interface {
	isCommand()
}

// Builtin is a control command handled by the session.
type Builtin struct {
	Name string
	Args []string
}

// External is a process to launch.
type External struct {
	Argv []string
}

func (Builtin) isCommand()  {}
func (External) isCommand() {}

// ParseCommand splits a bound command with shell quoting rules and resolves
// its leading word. A blank command parses to nil.
func ParseCommand(s string) (Command, error) {
	argv, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("splitting %q: %w", s, err)
	}
	if len(argv) == 0 {
		return nil, nil
	}
	if builtinNames[argv[0]] {
		return Builtin{Name: argv[0], Args: argv[1:]}, nil
	}
	return External{Argv: argv}, nil
}
