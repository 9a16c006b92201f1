// Package registry implements the Task Registry: the top-level mutable
// state mapping configuration-source identifiers to their sets of Tasks,
// and the reconciliation algorithm that applies a new configuration
// atomically while preserving the identity of unchanged Tasks.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/taskmasterd/taskmasterd/internal/config"
	"github.com/taskmasterd/taskmasterd/internal/task"
)

// source is one loaded configuration document: its canonical path and the
// Tasks it currently contributes, keyed by name.
type source struct {
	path  string
	tasks map[string]*task.Task
}

// Registry is the whole live set of sources and their Tasks, guarded by a
// single mutex. This is the only shared mutable state in the daemon; the
// health-check ticker and every control-connection worker hold a reference
// to the same Registry and serialize through this lock.
type Registry struct {
	mu      sync.Mutex
	sources map[string]*source
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{sources: make(map[string]*source)}
}

// Load parses and validates the configuration at path. On failure the
// Registry is left unchanged and the error carries path and reason. On
// success, a newly-seen path is inserted and every Task is Init'd; an
// already-loaded path is reconciled against its previous Tasks.
func (r *Registry) Load(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	return r.loadLocked(path, doc)
}

func (r *Registry) loadLocked(path string, doc *config.Document) error {
	existing, ok := r.sources[path]
	if !ok {
		src := &source{path: path, tasks: make(map[string]*task.Task, len(doc.Programs))}
		for name, opts := range doc.Programs {
			tk := task.New(name, opts)
			tk.Init()
			src.tasks[name] = tk
		}
		r.sources[path] = src
		return nil
	}
	reconcileLocked(existing, doc)
	return nil
}

// reconcileLocked is the diff-and-apply step: for every name in the new
// document, retain the existing Task (preserving its id and PU identities)
// and Update it when also present in the old set, or construct and Init a
// fresh Task when it is new. Every old name absent from the new document is
// stopped and discarded. Caller holds r.mu.
func reconcileLocked(src *source, doc *config.Document) {
	next := make(map[string]*task.Task, len(doc.Programs))
	for name, opts := range doc.Programs {
		if old, ok := src.tasks[name]; ok {
			old.Update(opts)
			next[name] = old
			continue
		}
		tk := task.New(name, opts)
		tk.Init()
		next[name] = tk
	}
	for name, old := range src.tasks {
		if _, ok := doc.Programs[name]; !ok {
			old.Stop()
		}
	}
	src.tasks = next
}

// Unload stops every Task in the source at path and removes it. It is an
// error if the path was not loaded.
func (r *Registry) Unload(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.sources[path]
	if !ok {
		return fmt.Errorf("source not loaded: %s", path)
	}
	for _, tk := range src.tasks {
		tk.Stop()
	}
	delete(r.sources, path)
	return nil
}

// ReloadAll re-parses every loaded source, accumulating per-source errors
// and continuing past failures. It returns the concatenated error report,
// or nil if every source reloaded cleanly.
func (r *Registry) ReloadAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.sources))
	for p := range r.sources {
		paths = append(paths, p)
	}

	var errs []string
	for _, p := range paths {
		doc, err := config.LoadFile(p)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if err := r.loadLocked(p, doc); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(errs, "; "))
}

// RestartAll stops then starts every Task across every source.
func (r *Registry) RestartAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, src := range r.sources {
		for _, tk := range src.tasks {
			tk.Stop()
		}
	}
	for _, src := range r.sources {
		for _, tk := range src.tasks {
			tk.Start()
		}
	}
}

// FindByID linearly scans every Task across every source for a matching id.
func (r *Registry) FindByID(id uint64) (*task.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tk := r.findByIDLocked(id)
	return tk, tk != nil
}

func (r *Registry) findByIDLocked(id uint64) *task.Task {
	for _, src := range r.sources {
		for _, tk := range src.tasks {
			if tk.ID() == id {
				return tk
			}
		}
	}
	return nil
}

// ErrTaskNotFound is returned by the task-scoped operations below when id
// does not resolve to a live Task.
var ErrTaskNotFound = errors.New("task not found")

// StartTask starts the identified Task under a single mutex acquisition,
// so a concurrent health tick can never interleave with the command.
func (r *Registry) StartTask(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tk := r.findByIDLocked(id)
	if tk == nil {
		return ErrTaskNotFound
	}
	tk.Start()
	return nil
}

// StopTask gracefully stops the identified Task.
func (r *Registry) StopTask(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tk := r.findByIDLocked(id)
	if tk == nil {
		return ErrTaskNotFound
	}
	tk.GracefulStop()
	return nil
}

// RestartTask stops then starts the identified Task.
func (r *Registry) RestartTask(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tk := r.findByIDLocked(id)
	if tk == nil {
		return ErrTaskNotFound
	}
	tk.Stop()
	tk.Start()
	return nil
}

// InfoTask renders the identified Task's configured options plus status.
func (r *Registry) InfoTask(id uint64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tk := r.findByIDLocked(id)
	if tk == nil {
		return "", ErrTaskNotFound
	}
	opts := tk.Options()
	var b strings.Builder
	fmt.Fprintf(&b, "argv: %s\n", strings.Join(opts.Argv, " "))
	fmt.Fprintf(&b, "numprocs: %d  autostart: %t  autorestart: %s\n",
		opts.NumProcs, opts.AutoStart, opts.AutoRestart.Mode)
	fmt.Fprintf(&b, "retries: %d  starttime: %ds  stoptime: %ds\n",
		opts.Retries, opts.StartSeconds, opts.StopSeconds)
	b.WriteString(tk.Status(""))
	return b.String(), nil
}

// Tick fans the health sweep out to every Task, driving every Process
// Unit's state machine forward. The whole pass runs under the Registry
// mutex, per the concurrency discipline in the design.
func (r *Registry) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, src := range r.sources {
		for _, tk := range src.tasks {
			tk.Tick()
		}
	}
}

// Status renders an aggregate human-readable report grouped by source and
// task name.
func (r *Registry) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sources) == 0 {
		return "no sources loaded\n"
	}

	var b strings.Builder
	for path, src := range r.sources {
		fmt.Fprintf(&b, "%s\n", path)
		for _, tk := range src.tasks {
			b.WriteString(tk.Status("  "))
		}
	}
	return b.String()
}
