package binder

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

const colorPageSize = 64

// DevicePicker lets the operator pick a palette code on the device itself.
// One page of 64 codes is painted on columns 0-7 of rows 1-8; the left and
// right navigation buttons switch between the two pages.
type DevicePicker struct {
	Interval time.Duration
}

func (p *DevicePicker) Choose(ctx context.Context, dev Device) (int, bool, error) {
	dev.FlushInput()
	limiter := rate.NewLimiter(rate.Every(p.Interval), 1)

	page := 0
	colors, err := drawColorPage(dev, page)
	if err != nil {
		return 0, false, err
	}
	for {
		if err := limiter.Wait(ctx); err != nil {
			return 0, false, clearAfterPick(dev, err)
		}
		raw, ok, err := dev.Poll()
		if err != nil {
			return 0, false, fmt.Errorf("polling device: %w", err)
		}
		if !ok {
			continue
		}
		ev, err := NewEvent(raw)
		if err != nil || !ev.IsPress() {
			continue
		}

		switch {
		case ev.IsLeftNav(), ev.IsRightNav():
			next := 0
			if ev.IsRightNav() {
				next = colorPageSize
			}
			if next != page {
				page = next
				if colors, err = drawColorPage(dev, page); err != nil {
					return 0, false, err
				}
			}
			continue
		}

		c, ok := colors[ev.Coord]
		if !ok {
			continue
		}
		return c, true, clearAfterPick(dev, nil)
	}
}

func clearAfterPick(dev Device, err error) error {
	if cerr := dev.ClearAll(ColorOff); cerr != nil && err == nil {
		err = fmt.Errorf("clearing device: %w", cerr)
	}
	return err
}

func drawColorPage(dev Device, start int) (map[Coord]int, error) {
	colors := make(map[Coord]int, colorPageSize)
	color := start
	for x := 0; x < 8; x++ {
		for y := 1; y <= 8; y++ {
			c := Coord{X: x, Y: y}
			colors[c] = color
			if err := dev.SetIndicator(x, y, color); err != nil {
				return nil, fmt.Errorf("painting color page: %w", err)
			}
			color++
		}
	}
	return colors, nil
}
