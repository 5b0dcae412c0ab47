package device

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/chzchzchz/gridbind/internal/binder"
)

// DefaultLaunchpadPath is the raw MIDI node of the first USB MIDI card.
const DefaultLaunchpadPath = "/dev/snd/midiC1D0"

// Launchpad drives a Novation Launchpad Mk2 through an ALSA raw MIDI node.
type Launchpad struct {
	path string
	open func(path string) (io.ReadWriteCloser, error)

	mu       sync.Mutex
	port     io.ReadWriteCloser
	baseline int
	leds     map[binder.Coord]int
	q        *queue
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewLaunchpad(path string) *Launchpad {
	if path == "" {
		path = DefaultLaunchpadPath
	}
	return &Launchpad{
		path: path,
		open: openRawMIDI,
		leds: make(map[binder.Coord]int),
		q:    newQueue(),
	}
}

func openRawMIDI(path string) (io.ReadWriteCloser, error) {
	return os.OpenFile(path, os.O_RDWR, 0)
}

func (lp *Launchpad) Open() error {
	port, err := lp.open(lp.path)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	lp.mu.Lock()
	lp.port = port
	lp.done = done
	lp.mu.Unlock()

	log.Info("attached", "path", lp.path)
	lp.wg.Add(1)
	go lp.readLoop(port, done)
	return nil
}

// readLoop feeds the event queue and brings the port back after the device
// is unplugged and plugged in again.
func (lp *Launchpad) readLoop(port io.ReadWriteCloser, done chan struct{}) {
	defer lp.wg.Done()
	for {
		err := lp.read(port)
		select {
		case <-done:
			return
		default:
		}
		log.Warn("lost device", "path", lp.path, "err", err)
		lp.mu.Lock()
		lp.port = nil
		lp.mu.Unlock()
		port.Close()

		port, err = reattach(done, lp.path, func() (io.ReadWriteCloser, error) {
			return lp.open(lp.path)
		})
		if err != nil {
			if !errors.Is(err, errClosed) {
				log.Error("giving up on device", "path", lp.path, "err", err)
			}
			return
		}
		if !lp.restore(port, done) {
			port.Close()
			return
		}
	}
}

// restore installs a reattached port and replays the LED state onto it.
func (lp *Launchpad) restore(port io.ReadWriteCloser, done chan struct{}) bool {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	select {
	case <-done:
		return false
	default:
	}
	lp.port = port
	if _, err := port.Write(clearMessage(lp.baseline)); err != nil {
		log.Warn("restoring leds", "err", err)
	}
	for c, color := range lp.leds {
		if _, err := port.Write(ledMessage(c.X, c.Y, color)); err != nil {
			log.Warn("restoring leds", "err", err)
			break
		}
	}
	return true
}

func (lp *Launchpad) read(port io.Reader) error {
	var p midiParser
	buf := make([]byte, 64)
	for {
		n, err := port.Read(buf)
		for _, b := range buf[:n] {
			msg, ok := p.feed(b)
			if !ok {
				continue
			}
			if ev, ok := midiToRaw(msg); ok {
				lp.q.push(ev)
			}
		}
		if err != nil {
			return err
		}
	}
}

func (lp *Launchpad) Close() error {
	lp.mu.Lock()
	port := lp.port
	if lp.done != nil {
		close(lp.done)
		lp.done = nil
	}
	lp.port = nil
	lp.mu.Unlock()

	var err error
	if port != nil {
		err = port.Close()
	}
	lp.wg.Wait()
	return err
}

func (lp *Launchpad) Poll() (binder.RawEvent, bool, error) {
	ev, ok := lp.q.poll()
	return ev, ok, nil
}

func (lp *Launchpad) SetIndicator(x, y, color int) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.leds[binder.Coord{X: x, Y: y}] = color
	return lp.write(ledMessage(x, y, color))
}

func (lp *Launchpad) ClearAll(color int) error {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	clear(lp.leds)
	lp.baseline = color
	return lp.write(clearMessage(color))
}

func (lp *Launchpad) FlushInput() { lp.q.flush() }

// write sends msg to the port. lp.mu must be held. While the device is
// detached writes only update the LED state replayed on reattach.
func (lp *Launchpad) write(msg []byte) error {
	if lp.port == nil {
		return nil
	}
	if _, err := lp.port.Write(msg); err != nil {
		return fmt.Errorf("writing to %s: %w", lp.path, err)
	}
	return nil
}
