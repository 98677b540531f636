package rbac

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/optitalent/hr-backend/internal/logging"
)

// Policy holds the active Table. Readers take one snapshot per request with
// Table so a concurrent Swap never yields a half-applied policy.
type Policy struct {
	current atomic.Pointer[Table]
}

func NewPolicy(t *Table) *Policy {
	if t == nil {
		t = DefaultTable()
	}
	p := &Policy{}
	p.current.Store(t)
	return p
}

func (p *Policy) Table() *Table {
	return p.current.Load()
}

// Swap installs t and returns the table it replaced.
func (p *Policy) Swap(t *Table) *Table {
	return p.current.Swap(t)
}

type policyFile struct {
	Version string                `yaml:"version"`
	Roles   map[string][]NavEntry `yaml:"roles"`
}

// ParseTable decodes a YAML policy document:
//
//	version: "2024-06"
//	roles:
//	  employee:
//	    - {segment: dashboard, label: Dashboard, access: view}
func ParseTable(data []byte) (*Table, error) {
	var doc policyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrInvalidTable)
	}

	entries := make(map[Role][]NavEntry, len(doc.Roles))
	for name, list := range doc.Roles {
		role, err := ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
		}
		entries[role] = list
	}
	return NewTable(doc.Version, entries)
}

func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParseTable(data)
}

// WatchPolicyFile reloads path into p whenever it changes, until ctx is done.
// An invalid file is logged and the previous table stays active. onReload,
// if set, receives the version of each table swapped in.
func WatchPolicyFile(ctx context.Context, path string, p *Policy, onReload func(version string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create policy watcher: %w", err)
	}

	// Editors replace files rather than write in place, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch policy directory: %w", err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if t := reload(path, p); t != nil && onReload != nil {
					onReload(t.Version())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("policy watcher error", "error", err)
			}
		}
	}()

	return nil
}

func reload(path string, p *Policy) *Table {
	t, err := LoadTable(path)
	if err != nil {
		logging.Error("policy reload rejected", "path", path, "error", err)
		return nil
	}
	prev := p.Swap(t)
	logging.Info("policy reloaded", "path", path, "version", t.Version(), "previous_version", prev.Version())
	return t
}
