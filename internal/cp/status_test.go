package cp

import "testing"

func TestValidTransitions(t *testing.T) {
	allowed := []struct {
		from, to CPStatus
	}{
		{StatusDisconnected, StatusConnecting},
		{StatusConnecting, StatusConnected},
		{StatusConnected, StatusAuthorized},
		{StatusConnected, StatusInTransaction},
		{StatusAuthorized, StatusInTransaction},
		{StatusAuthorized, StatusConnected},
		{StatusInTransaction, StatusAuthorized},
		{StatusError, StatusConnecting},
	}
	for _, tc := range allowed {
		if !ValidTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be valid", tc.from, tc.to)
		}
	}
}

func TestErrorAndDisconnectedAlwaysReachable(t *testing.T) {
	states := []CPStatus{StatusDisconnected, StatusConnecting, StatusConnected, StatusAuthorized, StatusInTransaction, StatusError}
	for _, from := range states {
		if !ValidTransition(from, StatusError) {
			t.Fatalf("expected %s -> ERROR to be valid", from)
		}
		if !ValidTransition(from, StatusDisconnected) {
			t.Fatalf("expected %s -> DISCONNECTED to be valid", from)
		}
	}
}

func TestInvalidTransitions(t *testing.T) {
	invalid := []struct {
		from, to CPStatus
	}{
		{StatusDisconnected, StatusConnected},
		{StatusDisconnected, StatusAuthorized},
		{StatusConnecting, StatusInTransaction},
		{StatusInTransaction, StatusConnected},
	}
	for _, tc := range invalid {
		if ValidTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be invalid", tc.from, tc.to)
		}
	}
}
