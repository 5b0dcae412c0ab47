package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/chzchzchz/gridbind/internal/binder"
	"github.com/chzchzchz/gridbind/internal/device"
)

var devInputPath = "/dev/input/by-id"

func newDevice(s Settings) (binder.Device, error) {
	switch s.Device {
	case "launchpad":
		return device.NewLaunchpad(s.DevicePath), nil
	case "evdev":
		return device.NewKeypad(s.DevicePath), nil
	}
	return nil, fmt.Errorf("unknown device kind %q (want launchpad or evdev)", s.Device)
}

// listDevices prints the input device links an evdev keypad can be bound to.
func listDevices() error {
	des, err := os.ReadDir(devInputPath)
	if err != nil {
		return err
	}
	fmt.Printf("devices (%s):\n", devInputPath)
	for _, de := range des {
		if de.Type()&fs.ModeType == fs.ModeSymlink {
			fmt.Println(de.Name())
		}
	}
	return nil
}
