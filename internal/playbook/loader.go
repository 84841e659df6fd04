package playbook

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/morpheus-lite/soar/internal/logger"
	"github.com/morpheus-lite/soar/internal/rule"
)

// Loader reads the playbook file, watches it for changes, and hands out
// snapshots. The current snapshot is replaced wholesale on reload so
// concurrent readers never observe a partially-written rule set.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Snapshot
	onChange []func(*Snapshot)
	log      zerolog.Logger
}

// NewLoader creates a Loader and performs the initial load. A missing or
// unreadable file degrades to an empty rule set rather than failing startup.
func NewLoader(path string) *Loader {
	l := &Loader{path: path, log: logger.WithComponent("playbook")}
	snap, err := l.load()
	if err != nil {
		l.log.Warn().Err(err).Str("path", path).Msg("starting with empty rule set")
	}
	l.current = snap
	return l
}

// Snapshot returns the current (latest) snapshot.
func (l *Loader) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Rules returns the current rule list.
func (l *Loader) Rules() []rule.Rule {
	return l.Snapshot().Rules
}

// OnChange registers a callback invoked whenever the playbook reloads.
func (l *Loader) OnChange(fn func(*Snapshot)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the playbook on file
// changes. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("playbook watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("playbook watcher add %s: %w", l.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						l.log.Warn().Err(err).Msg("hot-reload skipped")
					}
				}
			case <-w.Errors:
				// Ignore watcher errors; the old snapshot stays in place.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the playbook file.
func (l *Loader) Reload() (*Snapshot, error) {
	snap, err := l.load()
	if err != nil {
		return nil, err
	}
	l.swap(snap)
	l.log.Info().Int("rules", len(snap.Rules)).Msg("playbook reloaded")
	return snap, nil
}

// Save validates the YAML text, writes it atomically, and reloads. The file
// is never left partially written: content goes to a temp file first and is
// renamed into place only after a full write.
func (l *Loader) Save(yamlText string) (*Snapshot, error) {
	doc, err := Normalize(yamlText)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".playbook-*.yaml")
	if err != nil {
		return nil, fmt.Errorf("save playbook: %w", err)
	}
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("save playbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("save playbook: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("save playbook: %w", err)
	}

	snap, err := Parse(out)
	if err != nil {
		return nil, err
	}
	l.swap(snap)
	l.log.Info().Int("rules", len(snap.Rules)).Msg("playbook saved")
	return snap, nil
}

func (l *Loader) swap(snap *Snapshot) {
	l.mu.Lock()
	l.current = snap
	callbacks := make([]func(*Snapshot), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(snap)
	}
}

func (l *Loader) load() (*Snapshot, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(), nil
		}
		return Empty(), fmt.Errorf("read playbook %s: %w", l.path, err)
	}
	return Parse(data)
}
