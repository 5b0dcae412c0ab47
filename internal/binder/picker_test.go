package binder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevicePickerFirstPage(t *testing.T) {
	dev := newFakeDevice(release(4, 4), press(1, 2))
	p := &DevicePicker{}

	c, ok, err := p.Choose(testContext(t), dev)
	require.NoError(t, err)
	assert.True(t, ok)
	// column-major: x=1 starts at 8, y=2 is the second cell.
	assert.Equal(t, 9, c)
	assert.Equal(t, 1, dev.flushes)
	assert.Equal(t, []int{ColorOff}, dev.clears)
}

func TestDevicePickerPaging(t *testing.T) {
	dev := newFakeDevice(press(3, 0), release(3, 0), press(0, 1))
	p := &DevicePicker{}

	c, ok, err := p.Choose(testContext(t), dev)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 64, c)
	assert.Equal(t, 2, dev.paints[Coord{7, 8}], "second page painted over the first")
	assert.Equal(t, []int{0, 64}, dev.colorsAt(Coord{0, 1}))
}

func TestDevicePickerBackToFirstPage(t *testing.T) {
	dev := newFakeDevice(press(3, 0), press(2, 0), press(7, 8))
	p := &DevicePicker{}

	c, ok, err := p.Choose(testContext(t), dev)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 63, c)
}

func TestDevicePickerIgnoresTopRow(t *testing.T) {
	dev := newFakeDevice(press(6, 0), press(0, 8))
	p := &DevicePicker{}

	c, _, err := p.Choose(testContext(t), dev)
	require.NoError(t, err)
	assert.Equal(t, 7, c)
}

func TestDevicePickerCancel(t *testing.T) {
	dev := newFakeDevice()
	p := &DevicePicker{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := p.Choose(ctx, dev)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{ColorOff}, dev.clears)
}
