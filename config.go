package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/chzchzchz/gridbind/internal/binder"
)

// Settings are read from the --bindings-file flag and GRIDBIND_* variables,
// e.g. GRIDBIND_DEVICE=evdev GRIDBIND_DEVICE_PATH=usb-1a86_e026-event-kbd.
type Settings struct {
	BindingsFile string
	FallbackFile string
	Device       string
	DevicePath   string
	PollInterval time.Duration
	OpenAttempts uint
	LogLevel     string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("gridbind")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("bindings-file", "bindings.json")
	v.SetDefault("fallback-file", "temp.json")
	v.SetDefault("device", "launchpad")
	v.SetDefault("device-path", "")
	v.SetDefault("poll-interval", binder.DefaultPollInterval)
	v.SetDefault("open-attempts", 3)
	v.SetDefault("log-level", "info")
	return v
}

func loadSettings(v *viper.Viper) (Settings, error) {
	s := Settings{
		BindingsFile: v.GetString("bindings-file"),
		FallbackFile: v.GetString("fallback-file"),
		Device:       v.GetString("device"),
		DevicePath:   v.GetString("device-path"),
		PollInterval: v.GetDuration("poll-interval"),
		OpenAttempts: v.GetUint("open-attempts"),
		LogLevel:     v.GetString("log-level"),
	}
	if s.PollInterval <= 0 {
		return s, fmt.Errorf("poll interval must be positive, got %v", s.PollInterval)
	}

	var err error
	if s.BindingsFile, err = homedir.Expand(s.BindingsFile); err != nil {
		return s, err
	}
	if s.FallbackFile, err = homedir.Expand(s.FallbackFile); err != nil {
		return s, err
	}
	return s, nil
}
