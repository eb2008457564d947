package cp

import (
	"go.uber.org/zap"

	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/ocpp/protocol"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/store"
)

// connectorCount is the number of physical outlets. Connector 0 is the
// charge point itself; changing its availability cascades to the outlets.
const connectorCount = 2

// Connectors models per-connector state. Status is session-scoped, lost on
// reconnect; availability is durable, surviving restarts.
type Connectors struct {
	session store.Store
	durable store.Store
	logger  *zap.Logger

	// notify sends a StatusNotification CALL for the connector.
	notify func(connectorID int, status string)
	// onAvailabilityChange publishes availability changes to the observer.
	onAvailabilityChange func(connectorID int, availability string)
}

// NewConnectors builds the connector model.
func NewConnectors(session, durable store.Store, notify func(int, string), onAvailabilityChange func(int, string), logger *zap.Logger) *Connectors {
	return &Connectors{
		session:              session,
		durable:              durable,
		logger:               logger,
		notify:               notify,
		onAvailabilityChange: onAvailabilityChange,
	}
}

// Status returns the connector's session status, default Available.
func (c *Connectors) Status(connectorID int) string {
	return c.session.Get(store.ConnStatusKey(connectorID), protocol.ConnectorAvailable)
}

// SetStatus writes the session status and, when notify is set, immediately
// emits a StatusNotification CALL.
func (c *Connectors) SetStatus(connectorID int, status string, notify bool) {
	c.session.Put(store.ConnStatusKey(connectorID), status)
	c.logger.Debug("connector status changed",
		zap.Int("connector_id", connectorID),
		zap.String("status", status))
	if notify && c.notify != nil {
		c.notify(connectorID, status)
	}
}

// Availability returns the connector's durable availability, default Operative.
func (c *Connectors) Availability(connectorID int) string {
	return c.durable.Get(store.ConnAvailabilityKey(connectorID), protocol.AvailabilityOperative)
}

// SetAvailability writes the durable availability, aligns the session status
// (Inoperative pulls the connector to Unavailable, Operative returns it to
// Available), and publishes the change. Connector 0 cascades to the outlets
// after the local update and event.
func (c *Connectors) SetAvailability(connectorID int, availability string) {
	c.durable.Put(store.ConnAvailabilityKey(connectorID), availability)

	if availability == protocol.AvailabilityInoperative {
		c.SetStatus(connectorID, protocol.ConnectorUnavailable, true)
	} else {
		c.SetStatus(connectorID, protocol.ConnectorAvailable, true)
	}

	if c.onAvailabilityChange != nil {
		c.onAvailabilityChange(connectorID, availability)
	}

	if connectorID == 0 {
		for id := 1; id <= connectorCount; id++ {
			c.SetAvailability(id, availability)
		}
	}
}
