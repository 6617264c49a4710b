package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// shmRoot mirrors where the library keeps state objects, so the watcher
// can find the file behind a user-visible name.
func shmRoot() string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

// watchState reports filesystem events on a state's backing object until
// the duration elapses. Purely diagnostic: a creating subscribe shows up as
// a create, an eager unsubscribe elsewhere as a remove. Commits copy bytes
// through a shared mapping, which raises no filesystem event, so they do
// not show up.
func watchState(name string, d time.Duration, out io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	target := filepath.Join(shmRoot(), "kstate."+name)
	// Watch the directory, not the file: a remove+recreate cycle would
	// silently drop a file-level watch.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", target, err)
	}

	deadline := time.After(d)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != target {
				continue
			}
			fmt.Fprintf(out, "%s %s\n", time.Now().Format(time.TimeOnly), ev.Op)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", target, err)
		case <-deadline:
			return nil
		}
	}
}
