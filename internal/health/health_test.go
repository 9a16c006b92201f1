package health

import (
	"testing"
	"time"

	"github.com/taskmasterd/taskmasterd/internal/registry"
)

func TestTickerRunsUntilStopped(t *testing.T) {
	reg := registry.New()
	ticker := NewWithInterval(reg, time.Millisecond)

	done := make(chan struct{})
	go func() {
		ticker.Run()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	ticker.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
