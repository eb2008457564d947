package cp

// Observer receives engine events. All callbacks run on engine goroutines and
// must not block; a UI shell typically forwards them to its own loop.
type Observer interface {
	// OnStatusChange fires on every charge-point status write.
	OnStatusChange(status CPStatus, detail string)
	// OnAvailabilityChange fires when a connector's durable availability changes.
	OnAvailabilityChange(connectorID int, availability string)
	// OnMeterValueChange fires when the simulated meter register changes.
	OnMeterValueChange(meterValueWh int)
	// OnLog receives engine log lines, each prefixed with "[OCPP] ".
	OnLog(message string)
}

type noopObserver struct{}

func (noopObserver) OnStatusChange(CPStatus, string)  {}
func (noopObserver) OnAvailabilityChange(int, string) {}
func (noopObserver) OnMeterValueChange(int)           {}
func (noopObserver) OnLog(string)                     {}
