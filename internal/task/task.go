// Package task implements the Task: a named program with N replicated
// Process Units sharing options. A Task scales its replica sequence to the
// target cardinality and broadcasts start/stop across it.
package task

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/taskmasterd/taskmasterd/internal/config"
	"github.com/taskmasterd/taskmasterd/internal/procunit"
)

// nextID is the process-wide monotonic counter backing Task.ID. Ids are
// never recycled.
var nextID uint64

// Task is a named program with a target replica count, realized as a
// sequence of Process Units.
type Task struct {
	id   uint64
	name string

	mu    sync.Mutex
	opts  config.TaskOptions
	units []*procunit.ProcessUnit
}

// New allocates a Task with a fresh id and the given name/options. It does
// not start anything; call Init for that.
func New(name string, opts config.TaskOptions) *Task {
	return &Task{
		id:   atomic.AddUint64(&nextID, 1),
		name: name,
		opts: opts,
	}
}

// ID returns the Task's stable, process-lifetime-unique identifier.
func (t *Task) ID() uint64 { return t.id }

// Name returns the Task's configuration-source-local name.
func (t *Task) Name() string { return t.name }

// Options returns the Task's current, immutable options value.
func (t *Task) Options() config.TaskOptions {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opts
}

// Init starts the Task if its options request autostart; otherwise its
// units remain unconstructed until an explicit Start.
func (t *Task) Init() {
	if t.Options().AutoStart {
		t.Start()
	}
}

// Start scales the replica sequence to NumProcs — appending fresh Process
// Units if the sequence is short, stopping and dropping the tail if it's
// long — then starts every remaining unit (idempotent on ones already
// live). NumProcs == 0 leaves the Task with no units and is a no-op.
func (t *Task) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for uint(len(t.units)) < t.opts.NumProcs {
		t.units = append(t.units, procunit.New())
	}
	if uint(len(t.units)) > t.opts.NumProcs {
		excess := t.units[t.opts.NumProcs:]
		t.units = t.units[:t.opts.NumProcs]
		for _, pu := range excess {
			pu.Stop()
		}
	}
	for _, pu := range t.units {
		_ = pu.Start(t.opts)
	}
}

// GracefulStop sends the configured stop signal to every live unit's child.
func (t *Task) GracefulStop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, pu := range t.units {
		pu.GracefulStop(t.opts)
	}
}

// Stop forcibly terminates every unit's live child.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, pu := range t.units {
		pu.Stop()
	}
}

// Update replaces the Task's options. If new is equal to the current
// options, it is a no-op: no child is stopped or restarted. Otherwise every
// unit is stopped, options are replaced, and the Task is restarted —
// replicating a live option change (env, working dir, umask, redirections)
// across running children is not safe.
func (t *Task) Update(newOpts config.TaskOptions) {
	t.mu.Lock()
	unchanged := t.opts.Equal(newOpts)
	t.mu.Unlock()
	if unchanged {
		return
	}
	t.Stop()
	t.mu.Lock()
	t.opts = newOpts
	t.mu.Unlock()
	t.Start()
}

// Tick fans out the health sweep to every unit.
func (t *Task) Tick() {
	t.mu.Lock()
	units := append([]*procunit.ProcessUnit(nil), t.units...)
	opts := t.opts
	t.mu.Unlock()
	for _, pu := range units {
		pu.Tick(opts)
	}
}

// Status renders an aggregate, indented multi-line status report for this
// Task's replicas.
func (t *Task) Status(indent string) string {
	t.mu.Lock()
	units := append([]*procunit.ProcessUnit(nil), t.units...)
	opts := t.opts
	name := t.name
	id := t.id
	t.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s (id=%d)\n", indent, name, id)
	for i, pu := range units {
		fmt.Fprintf(&b, "%s  [%d] %s\n", indent, i, pu.Status(opts))
	}
	if len(units) == 0 {
		fmt.Fprintf(&b, "%s  (no replicas)\n", indent)
	}
	return b.String()
}
