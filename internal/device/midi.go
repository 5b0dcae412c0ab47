package device

import (
	"github.com/chzchzchz/gridbind/internal/binder"
)

const (
	statusNoteOff = 0x80
	statusNoteOn  = 0x90
	statusCC      = 0xB0
	sysexStart    = 0xF0
	sysexEnd      = 0xF7

	// Controller numbers of the round buttons above the grid.
	topRowCC = 104
)

// midiParser turns a raw MIDI byte stream into channel messages. SysEx and
// realtime bytes are skipped; running status is honoured.
type midiParser struct {
	status byte
	data   [2]byte
	n      int
}

func (p *midiParser) feed(b byte) (msg [3]byte, ok bool) {
	switch {
	case b >= 0xF8:
		return msg, false
	case b&0x80 != 0:
		p.status, p.data, p.n = b, [2]byte{}, 0
		if b == sysexEnd {
			p.status = 0
		}
		return msg, false
	case p.status == 0 || p.status == sysexStart:
		return msg, false
	}

	p.data[p.n] = b
	p.n++
	if p.n < dataLen(p.status) {
		return msg, false
	}
	p.n = 0
	return [3]byte{p.status, p.data[0], p.data[1]}, true
}

func dataLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	}
	return 2
}

// midiToRaw maps a Launchpad Mk2 message in session layout to a grid event.
// Grid notes run 11..89 bottom-up, the top row is sent as controllers.
func midiToRaw(msg [3]byte) (binder.RawEvent, bool) {
	switch msg[0] & 0xF0 {
	case statusNoteOn, statusNoteOff:
		note := int(msg[1])
		col := note % 10
		if note < 11 || note > 99 || col == 0 {
			return binder.RawEvent{}, false
		}
		code := int(msg[2])
		if msg[0]&0xF0 == statusNoteOff {
			code = binder.ActionRelease
		}
		return binder.RawEvent{X: col - 1, Y: (99 - note) / 10, Code: code}, true
	case statusCC:
		cc := int(msg[1])
		if cc < topRowCC || cc >= topRowCC+8 {
			return binder.RawEvent{}, false
		}
		return binder.RawEvent{X: cc - topRowCC, Y: 0, Code: int(msg[2])}, true
	}
	return binder.RawEvent{}, false
}

// ledMessage addresses the LED under (x, y) with a palette code.
func ledMessage(x, y, color int) []byte {
	c := byte(color & 0x7F)
	if y == 0 {
		return []byte{statusCC, byte(topRowCC + x), c}
	}
	return []byte{statusNoteOn, byte(91 - 10*y + x), c}
}

// clearMessage lights every LED with one palette code (Mk2 SysEx).
func clearMessage(color int) []byte {
	return []byte{sysexStart, 0x00, 0x20, 0x29, 0x02, 0x18, 0x0E, byte(color & 0x7F), sysexEnd}
}
