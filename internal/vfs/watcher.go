package vfs

import (
	"github.com/fsnotify/fsnotify"
)

// Watch starts a best-effort fsnotify watch on basePath and forwards every
// event to the Manager's OnExternalChange hook, if set. This is advisory
// only — it exists so a Broadcaster can surface "something touched your
// base while a session was open" promptly, not to gate Commit, which
// always re-derives the authoritative answer via computeDirectoryHash
// regardless of whether a watch is running or missed an event.
func (m *Manager) Watch(basePath string, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(basePath); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-stop:
				return
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				if m.OnExternalChange != nil {
					m.OnExternalChange(basePath)
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}
