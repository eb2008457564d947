package ocpp

import (
	"sync"
	"time"
)

// TimeoutFunc is invoked when an outstanding CALL gets no reply in time.
// It runs on a timer goroutine; the entry is already gone by then.
type TimeoutFunc func(uniqueID, action string)

type pendingEntry struct {
	action string
	timer  *time.Timer
	sentAt time.Time
}

// PendingCalls correlates outbound CALLs with their CALLRESULT/CALLERROR
// replies by unique message id. OCPP-J defines no reply timeout, so each
// entry carries its own local timer.
type PendingCalls struct {
	mu        sync.Mutex
	entries   map[string]*pendingEntry
	timeout   time.Duration
	onTimeout TimeoutFunc
}

// NewPendingCalls returns a table with the given reply timeout.
func NewPendingCalls(timeout time.Duration, onTimeout TimeoutFunc) *PendingCalls {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PendingCalls{
		entries:   make(map[string]*pendingEntry),
		timeout:   timeout,
		onTimeout: onTimeout,
	}
}

// Register records an outbound CALL and arms its timeout.
func (p *PendingCalls) Register(uniqueID, action string) {
	entry := &pendingEntry{action: action, sentAt: time.Now().UTC()}
	entry.timer = time.AfterFunc(p.timeout, func() {
		p.expire(uniqueID)
	})

	p.mu.Lock()
	if old, ok := p.entries[uniqueID]; ok {
		old.timer.Stop()
	}
	p.entries[uniqueID] = entry
	p.mu.Unlock()
}

// Resolve erases the entry for uniqueID and returns its action.
// ok is false when the reply matches nothing outstanding.
func (p *PendingCalls) Resolve(uniqueID string) (action string, ok bool) {
	p.mu.Lock()
	entry, ok := p.entries[uniqueID]
	if ok {
		delete(p.entries, uniqueID)
	}
	p.mu.Unlock()

	if !ok {
		return "", false
	}
	entry.timer.Stop()
	return entry.action, true
}

// Len returns the number of outstanding CALLs.
func (p *PendingCalls) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// DropAll cancels every timer and empties the table. Called on disconnect:
// the dropped entries will never resolve.
func (p *PendingCalls) DropAll() {
	p.mu.Lock()
	for id, entry := range p.entries {
		entry.timer.Stop()
		delete(p.entries, id)
	}
	p.mu.Unlock()
}

func (p *PendingCalls) expire(uniqueID string) {
	p.mu.Lock()
	entry, ok := p.entries[uniqueID]
	if ok {
		delete(p.entries, uniqueID)
	}
	p.mu.Unlock()

	if ok && p.onTimeout != nil {
		p.onTimeout(uniqueID, entry.action)
	}
}
