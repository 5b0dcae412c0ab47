package device

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chzchzchz/gridbind/internal/binder"
)

func feedAll(p *midiParser, bs ...byte) [][3]byte {
	var msgs [][3]byte
	for _, b := range bs {
		if msg, ok := p.feed(b); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func TestMidiParser(t *testing.T) {
	var p midiParser
	msgs := feedAll(&p,
		// note on, a clock tick, then a release using running status
		0x90, 81, 127, 0xF8, 81, 0,
		// sysex is skipped
		0xF0, 0x00, 0x20, 0x29, 0xF7,
		0xB0, 104, 127,
		// program change has a single data byte
		0xC0, 5,
		// active sensing between data bytes
		0x90, 11, 0xFE, 127,
	)
	assert.Equal(t, [][3]byte{
		{0x90, 81, 127},
		{0x90, 81, 0},
		{0xB0, 104, 127},
		{0xC0, 5, 0},
		{0x90, 11, 127},
	}, msgs)
}

func TestMidiParserIgnoresStrayData(t *testing.T) {
	var p midiParser
	assert.Empty(t, feedAll(&p, 10, 20, 30))
}

func TestMidiToRaw(t *testing.T) {
	tests := []struct {
		msg  [3]byte
		want binder.RawEvent
		ok   bool
	}{
		{[3]byte{0x90, 81, 127}, binder.RawEvent{X: 0, Y: 1, Code: 127}, true},
		{[3]byte{0x90, 11, 127}, binder.RawEvent{X: 0, Y: 8, Code: 127}, true},
		{[3]byte{0x90, 88, 0}, binder.RawEvent{X: 7, Y: 1, Code: 0}, true},
		{[3]byte{0x90, 19, 127}, binder.RawEvent{X: 8, Y: 8, Code: 127}, true},
		{[3]byte{0x80, 55, 64}, binder.RawEvent{X: 4, Y: 4, Code: 0}, true},
		{[3]byte{0xB0, 106, 127}, binder.RawEvent{X: 2, Y: 0, Code: 127}, true},
		{[3]byte{0xB0, 111, 0}, binder.RawEvent{X: 7, Y: 0, Code: 0}, true},
		{[3]byte{0xB0, 7, 100}, binder.RawEvent{}, false},
		{[3]byte{0x90, 10, 127}, binder.RawEvent{}, false},
		{[3]byte{0x90, 5, 127}, binder.RawEvent{}, false},
		{[3]byte{0xC0, 5, 0}, binder.RawEvent{}, false},
	}
	for _, tt := range tests {
		got, ok := midiToRaw(tt.msg)
		assert.Equal(t, tt.ok, ok, "%v", tt.msg)
		assert.Equal(t, tt.want, got, "%v", tt.msg)
	}
}

func TestLedMessageRoundTrip(t *testing.T) {
	for x := 0; x < 8; x++ {
		for y := 0; y < 9; y++ {
			msg := ledMessage(x, y, 5)
			ev, ok := midiToRaw([3]byte{msg[0], msg[1], 127})
			assert.True(t, ok)
			assert.Equal(t, binder.RawEvent{X: x, Y: y, Code: 127}, ev)
		}
	}
}

func TestClearMessage(t *testing.T) {
	assert.Equal(t, []byte{0xF0, 0x00, 0x20, 0x29, 0x02, 0x18, 0x0E, 0x00, 0xF7}, clearMessage(0))
}
