// Package launch starts bound commands as detached processes.
package launch

import (
	"errors"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
)

// Detached starts each command in its own session so it survives the binder
// and never receives the binder's terminal signals. Output goes to the
// binder's own stdout and stderr.
type Detached struct{}

func (Detached) Start(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command line")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	cmd.SysProcAttr = detachAttr()
	if err := cmd.Start(); err != nil {
		return err
	}
	log.Debug("started process", "pid", cmd.Process.Pid, "argv", argv)

	// Reap the child; nobody looks at the result.
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug("process exited", "pid", cmd.Process.Pid, "err", err)
		}
	}()
	return nil
}
