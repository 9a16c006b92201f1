package procunit

import (
	"syscall"
	"testing"
	"time"

	"github.com/taskmasterd/taskmasterd/internal/config"
)

func baseOpts(argv ...string) config.TaskOptions {
	o := config.Defaults()
	o.Argv = argv
	return o
}

func waitForState(t *testing.T, pu *ProcessUnit, opts config.TaskOptions, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		pu.Tick(opts)
		if pu.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v after %s, want %v", pu.State(), timeout, want)
}

func TestStartThenExitsCleanly(t *testing.T) {
	opts := baseOpts("/bin/true")
	opts.AutoRestart = config.AutoRestart{Mode: config.RestartNever}
	opts.Retries = 0

	pu := New()
	if err := pu.Start(opts); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if pu.State() != StateRunning {
		t.Fatalf("state = %v, want Running", pu.State())
	}
	if !pu.IsLive() {
		t.Fatal("expected a live handle immediately after Start")
	}

	waitForState(t, pu, opts, StateExited, time.Second)
	if pu.IsLive() {
		t.Error("IsLive should be false once the unit has exited")
	}
}

func TestCrashLoopExhaustsRetries(t *testing.T) {
	opts := baseOpts("/bin/false")
	opts.AutoRestart = config.AutoRestart{Mode: config.RestartAlways}
	opts.Retries = 3

	pu := New()
	if err := pu.Start(opts); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && pu.RetriesCount() < 3 {
		pu.Tick(opts)
		time.Sleep(5 * time.Millisecond)
	}

	if pu.RetriesCount() != 3 {
		t.Fatalf("RetriesCount = %d, want 3", pu.RetriesCount())
	}
	waitForState(t, pu, opts, StateExited, time.Second)
	if pu.RetriesCount() > opts.Retries {
		t.Errorf("RetriesCount %d exceeds Retries budget %d", pu.RetriesCount(), opts.Retries)
	}

	// One more pass must not exceed the budget.
	for i := 0; i < 20; i++ {
		pu.Tick(opts)
	}
	if pu.RetriesCount() != 3 {
		t.Errorf("RetriesCount drifted to %d after budget exhausted", pu.RetriesCount())
	}
}

func TestGracefulStopEscalatesOnZeroStoptime(t *testing.T) {
	opts := baseOpts("/bin/sleep", "5")
	opts.AutoRestart = config.AutoRestart{Mode: config.RestartNever}
	opts.StopSignal = syscall.SIGTERM
	opts.StopSeconds = 0

	pu := New()
	if err := pu.Start(opts); err != nil {
		t.Fatalf("Start: %v", err)
	}

	pu.GracefulStop(opts)
	if pu.State() != StateStopping {
		t.Fatalf("state = %v, want Stopping", pu.State())
	}

	// The tick runs right after the signal is sent, before sleep has had
	// time to exit from SIGTERM, so the 0s grace period makes it escalate.
	// Tick reaps first: a child already gone by then lands in Stopped.
	pu.Tick(opts)
	if pu.State() != StateKilled {
		t.Fatalf("state after escalation = %v, want Killed", pu.State())
	}
	if pu.IsLive() {
		t.Error("a Killed unit must not report a live handle")
	}
}

func TestForcedStopSuppressesRespawn(t *testing.T) {
	opts := baseOpts("/bin/sleep", "5")
	opts.AutoRestart = config.AutoRestart{Mode: config.RestartAlways}
	opts.Retries = 8

	pu := New()
	if err := pu.Start(opts); err != nil {
		t.Fatalf("Start: %v", err)
	}
	pu.Stop()
	if pu.State() != StateKilled {
		t.Fatalf("state = %v, want Killed", pu.State())
	}

	for i := 0; i < 10; i++ {
		pu.Tick(opts)
	}
	if pu.State() != StateKilled {
		t.Errorf("state drifted to %v after ticking a forced-killed unit; respawn must not fire", pu.State())
	}
}

func TestNewUnitIsNotRunningAndNotLive(t *testing.T) {
	pu := New()
	if pu.IsLive() {
		t.Fatal("a freshly constructed unit must not be live")
	}
	if pu.State() != StateNotRunning {
		t.Fatalf("state = %v, want NotRunning", pu.State())
	}
}

func TestRetriesNeverExceedsBudgetInvariant(t *testing.T) {
	opts := baseOpts("/bin/false")
	opts.AutoRestart = config.AutoRestart{Mode: config.RestartAlways}
	opts.Retries = 1

	pu := New()
	_ = pu.Start(opts)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		pu.Tick(opts)
		if pu.RetriesCount() > opts.Retries {
			t.Fatalf("RetriesCount %d exceeded Retries %d", pu.RetriesCount(), opts.Retries)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
