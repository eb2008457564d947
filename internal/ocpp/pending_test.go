package ocpp

import (
	"sync"
	"testing"
	"time"

	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/ocpp/protocol"
)

func TestPendingCallsRegisterAndResolve(t *testing.T) {
	p := NewPendingCalls(time.Second, nil)

	p.Register("id-1", protocol.ActionHeartbeat)
	p.Register("id-2", protocol.ActionAuthorize)

	if p.Len() != 2 {
		t.Fatalf("expected 2 outstanding calls, got %d", p.Len())
	}

	action, ok := p.Resolve("id-2")
	if !ok || action != protocol.ActionAuthorize {
		t.Fatalf("expected Authorize, got %q ok=%v", action, ok)
	}

	// second resolve for the same id must miss
	if _, ok := p.Resolve("id-2"); ok {
		t.Fatal("expected miss on double resolve")
	}

	action, ok = p.Resolve("id-1")
	if !ok || action != protocol.ActionHeartbeat {
		t.Fatalf("expected Heartbeat, got %q ok=%v", action, ok)
	}
	if p.Len() != 0 {
		t.Fatalf("expected empty table, got %d", p.Len())
	}
}

func TestPendingCallsResolveMiss(t *testing.T) {
	p := NewPendingCalls(time.Second, nil)
	if _, ok := p.Resolve("ghost"); ok {
		t.Fatal("expected miss for unknown id")
	}
}

func TestPendingCallsTimeoutFires(t *testing.T) {
	var mu sync.Mutex
	var timedOutID, timedOutAction string

	p := NewPendingCalls(20*time.Millisecond, func(id, action string) {
		mu.Lock()
		timedOutID, timedOutAction = id, action
		mu.Unlock()
	})

	p.Register("slow-1", protocol.ActionBootNotification)

	waitFor(t, 500*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return timedOutID == "slow-1"
	})

	mu.Lock()
	if timedOutAction != protocol.ActionBootNotification {
		t.Fatalf("unexpected action %q", timedOutAction)
	}
	mu.Unlock()

	if p.Len() != 0 {
		t.Fatalf("expected entry dropped after timeout, got %d", p.Len())
	}
}

func TestPendingCallsResolveCancelsTimeout(t *testing.T) {
	var mu sync.Mutex
	fired := false

	p := NewPendingCalls(20*time.Millisecond, func(id, action string) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})

	p.Register("fast-1", protocol.ActionHeartbeat)
	if _, ok := p.Resolve("fast-1"); !ok {
		t.Fatal("expected resolve to hit")
	}

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Fatal("timeout fired after resolve")
	}
}

func TestPendingCallsDropAll(t *testing.T) {
	var mu sync.Mutex
	fired := 0

	p := NewPendingCalls(20*time.Millisecond, func(id, action string) {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	p.Register("a", protocol.ActionHeartbeat)
	p.Register("b", protocol.ActionMeterValues)
	p.DropAll()

	if p.Len() != 0 {
		t.Fatalf("expected empty table after DropAll, got %d", p.Len())
	}

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired != 0 {
		t.Fatalf("expected no timeout callbacks after DropAll, got %d", fired)
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
