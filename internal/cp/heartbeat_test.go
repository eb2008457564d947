package cp

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestHeartbeatFiresPeriodically(t *testing.T) {
	var fired atomic.Int32
	h := NewHeartbeat(func() { fired.Add(1) })
	defer h.Stop()

	h.Arm(20 * time.Millisecond)

	waitFor(t, time.Second, func() bool { return fired.Load() >= 2 })
}

func TestHeartbeatRearmCancelsPrevious(t *testing.T) {
	var fired atomic.Int32
	h := NewHeartbeat(func() { fired.Add(1) })
	defer h.Stop()

	h.Arm(10 * time.Millisecond)
	waitFor(t, time.Second, func() bool { return fired.Load() >= 1 })

	// rearming to a long interval must silence the short timer
	h.Arm(time.Hour)
	base := fired.Load()
	time.Sleep(60 * time.Millisecond)
	if fired.Load() > base+1 {
		t.Fatalf("previous timer kept firing after rearm")
	}
}

func TestHeartbeatStop(t *testing.T) {
	var fired atomic.Int32
	h := NewHeartbeat(func() { fired.Add(1) })

	h.Arm(10 * time.Millisecond)
	waitFor(t, time.Second, func() bool { return fired.Load() >= 1 })

	h.Stop()
	count := fired.Load()
	time.Sleep(50 * time.Millisecond)
	if fired.Load() > count+1 {
		t.Fatalf("heartbeat kept firing after stop")
	}
}

func TestHeartbeatArmZeroStops(t *testing.T) {
	var fired atomic.Int32
	h := NewHeartbeat(func() { fired.Add(1) })

	h.Arm(10 * time.Millisecond)
	waitFor(t, time.Second, func() bool { return fired.Load() >= 1 })

	h.Arm(0)
	count := fired.Load()
	time.Sleep(50 * time.Millisecond)
	if fired.Load() > count+1 {
		t.Fatalf("heartbeat kept firing after zero interval")
	}
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
