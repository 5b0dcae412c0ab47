package device

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

var errClosed = errors.New("device closed")

// waitForNode blocks until path exists or done is closed.
func waitForNode(done <-chan struct{}, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	// The node may have come back before the watch was in place.
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	for {
		var ev fsnotify.Event
		select {
		case <-done:
			return errClosed
		case ev = <-watcher.Events:
		case err := <-watcher.Errors:
			return err
		}
		if !ev.Has(fsnotify.Create) {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return err
		}
	}
}

// reattach waits for path to reappear and opens it again. udev may still be
// fixing permissions when the node shows up, so opening is retried.
func reattach[T any](done <-chan struct{}, path string, open func() (T, error)) (T, error) {
	var zero T
	log.Info("waiting for device", "path", path)
	if err := waitForNode(done, path); err != nil {
		return zero, err
	}
	var dev T
	err := retry.Do(
		func() error {
			var err error
			dev, err = open()
			return err
		},
		retry.Attempts(5),
		retry.Delay(200*time.Millisecond),
	)
	if err != nil {
		return zero, err
	}
	log.Info("reattached device", "path", path)
	return dev, nil
}
