package file

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/omalloc/courier/contrib/config"
	"github.com/omalloc/courier/contrib/log"
)

var (
	_ config.Source  = (*file)(nil)
	_ config.Watcher = (*file)(nil)
)

type file struct {
	path    string
	watcher *fsnotify.Watcher
	notify  chan struct{}
}

// NewSource new a file source.
func NewSource(path string) config.Source {
	f := &file{
		path:   path,
		notify: make(chan struct{}, 1),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warnf("[config] fsnotify unavailable, hot-reload limited to SIGHUP: %v", err)
		return f
	}
	// watch the directory so editor rename-and-replace writes are seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Warnf("[config] watch %s failed: %v", path, err)
		_ = watcher.Close()
		return f
	}

	f.watcher = watcher
	go f.loop()
	return f
}

// Load implements config.Source.
func (f *file) Load() ([]*config.KeyValue, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	return []*config.KeyValue{{
		Key:    f.path,
		Value:  data,
		Format: format(f.path),
	}}, nil
}

// Notify implements config.Watcher.
func (f *file) Notify() <-chan struct{} {
	return f.notify
}

// Close implements config.Watcher.
func (f *file) Close() error {
	if f.watcher == nil {
		return nil
	}
	return f.watcher.Close()
}

func (f *file) loop() {
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case f.notify <- struct{}{}:
			default:
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("[config] watcher error: %v", err)
		}
	}
}

func format(path string) string {
	if ext := filepath.Ext(path); len(ext) > 1 {
		return strings.ToLower(ext[1:])
	}
	return ""
}
