package device

import (
	"github.com/charmbracelet/log"

	"github.com/chzchzchz/gridbind/internal/binder"
)

const queueSize = 64

// queue hands events from a driver's reader goroutine to the session's
// non-blocking Poll.
type queue struct {
	ch chan binder.RawEvent
}

func newQueue() *queue {
	return &queue{ch: make(chan binder.RawEvent, queueSize)}
}

func (q *queue) push(ev binder.RawEvent) {
	select {
	case q.ch <- ev:
	default:
		log.Warn("input queue full, dropping event", "x", ev.X, "y", ev.Y)
	}
}

func (q *queue) poll() (binder.RawEvent, bool) {
	select {
	case ev := <-q.ch:
		return ev, true
	default:
		return binder.RawEvent{}, false
	}
}

func (q *queue) flush() {
	for {
		select {
		case <-q.ch:
		default:
			return
		}
	}
}
