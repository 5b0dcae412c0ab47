package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chzchzchz/gridbind/internal/binder"
	"github.com/chzchzchz/gridbind/internal/prompt"
)

// openDevice builds the driver named by the settings.
var openDevice = newDevice

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:          "gridbind",
		Short:        "Start the binding service",
		Long:         "Bind the buttons of a grid controller to shell commands.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), s)
		},
	}
	cmd.Flags().String("bindings-file", "bindings.json", "the location of the stored bindings file")
	if err := v.BindPFlag("bindings-file", cmd.Flags().Lookup("bindings-file")); err != nil {
		panic(err)
	}
	return cmd
}

func run(ctx context.Context, s Settings) error {
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	dev, err := openDevice(s)
	if err != nil {
		return err
	}
	sess := binder.NewSession(s.BindingsFile, dev, binder.Options{
		Prompter:     prompt.NewTerminal(),
		PollInterval: s.PollInterval,
		OpenAttempts: s.OpenAttempts,
	})
	if err := sess.Load(); err != nil {
		return fmt.Errorf("loading bindings: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = sess.Run(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, binder.ErrDeviceUnavailable):
		log.Error("cannot open device", "device", s.Device, "err", err)
		if s.Device == "evdev" {
			if lerr := listDevices(); lerr != nil {
				log.Error("cannot list devices", "path", devInputPath, "err", lerr)
			}
		}
		return nil
	}

	if derr := sess.SaveTo(s.FallbackFile); derr != nil {
		log.Error("could not store bindings", "path", s.FallbackFile, "err", derr)
	} else {
		log.Error("exception occurred, stored bindings", "path", s.FallbackFile)
	}
	return err
}
