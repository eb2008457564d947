package cp

// CPStatus is the charge-point-wide session status.
type CPStatus string

const (
	StatusDisconnected  CPStatus = "DISCONNECTED"
	StatusConnecting    CPStatus = "CONNECTING"
	StatusConnected     CPStatus = "CONNECTED"
	StatusAuthorized    CPStatus = "AUTHORIZED"
	StatusInTransaction CPStatus = "IN_TRANSACTION"
	StatusError         CPStatus = "ERROR"
)

// allowedTransitions lists the regular state machine edges. ERROR and
// DISCONNECTED are reachable from any state and are not listed per-state.
var allowedTransitions = map[CPStatus][]CPStatus{
	StatusDisconnected:  {StatusConnecting},
	StatusConnecting:    {StatusConnected},
	StatusConnected:     {StatusAuthorized, StatusInTransaction},
	StatusAuthorized:    {StatusInTransaction, StatusConnected},
	StatusInTransaction: {StatusAuthorized},
	StatusError:         {StatusConnecting},
}

// ValidTransition reports whether moving from one status to the other follows
// the state machine. Entering ERROR or DISCONNECTED is always legal; so is a
// self-transition (status refresh).
func ValidTransition(from, to CPStatus) bool {
	if to == StatusError || to == StatusDisconnected || to == from {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
