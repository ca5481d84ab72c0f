package prefabs

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/milk9111/charcontrol/common"
	"go.uber.org/zap"
)

// settle is how long a file must stay quiet before its change is reported.
// Editors often write a file several times per save.
const settle = 100 * time.Millisecond

type ChangeKind int

const (
	SpecChange ChangeKind = iota + 1
	ScriptChange
)

// Change is a spec or script file that was written, created, renamed or
// removed.
type Change struct {
	Path string
	Kind ChangeKind
}

// KindOf reports which kind of prefab file path is, if any.
func KindOf(path string) (ChangeKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SpecChange, true
	case ".tengo":
		return ScriptChange, true
	default:
		return 0, false
	}
}

// Watcher reports prefab changes under the watched directories once each
// file settles. Changes and Errors are closed once the watcher stops.
type Watcher struct {
	fs      *fsnotify.Watcher
	changes chan Change
	errs    chan error
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fs:      fs,
		changes: make(chan Change, 16),
		errs:    make(chan error, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher and waits for its goroutine. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stop)
		err = w.fs.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.changes)
		close(w.errs)
		close(w.done)
	}()

	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if _, ok := KindOf(event.Name); ok {
				pending[event.Name] = time.Now()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
				common.Logger().Warn("prefabs: dropped watcher error", zap.Error(err))
			}
		case now := <-ticker.C:
			for _, path := range settled(pending, now) {
				kind, _ := KindOf(path)
				select {
				case w.changes <- Change{Path: path, Kind: kind}:
				case <-w.stop:
					return
				}
			}
		case <-w.stop:
			return
		}
	}
}

// settled removes and returns, sorted, the paths quiet for at least settle.
func settled(pending map[string]time.Time, now time.Time) []string {
	var paths []string
	for path, last := range pending {
		if now.Sub(last) >= settle {
			paths = append(paths, path)
			delete(pending, path)
		}
	}
	sort.Strings(paths)
	return paths
}
