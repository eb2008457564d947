package cp

import (
	"encoding/json"
	"time"

	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/ocpp"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/ocpp/protocol"
)

// resetCloseGrace gives the write pump time to flush the Reset ack before
// the socket goes down.
const resetCloseGrace = 250 * time.Millisecond

func (e *Engine) registerHandlers() {
	e.handlers = map[string]handlerFunc{
		protocol.ActionReset:                  e.handleReset,
		protocol.ActionRemoteStartTransaction: e.handleRemoteStartTransaction,
		protocol.ActionRemoteStopTransaction:  e.handleRemoteStopTransaction,
		protocol.ActionTriggerMessage:         e.handleTriggerMessage,
		protocol.ActionChangeAvailability:     e.handleChangeAvailability,
		protocol.ActionUnlockConnector:        e.handleUnlockConnector,
		protocol.ActionGetConfiguration:       e.handleGetConfiguration,
	}
}

func (e *Engine) handleReset(payload json.RawMessage) (interface{}, func(), error) {
	req, err := ocpp.Decode[protocol.ResetRequest](payload)
	if err != nil {
		return nil, nil, err
	}

	e.logObs("reset requested (" + req.Type + ")")
	after := func() {
		go func() {
			time.Sleep(resetCloseGrace)
			e.Disconnect()
		}()
	}
	return protocol.StatusResponse{Status: protocol.StatusAccepted}, after, nil
}

func (e *Engine) handleRemoteStartTransaction(payload json.RawMessage) (interface{}, func(), error) {
	req, err := ocpp.Decode[protocol.RemoteStartTransactionRequest](payload)
	if err != nil {
		return nil, nil, err
	}

	response := e.cfg.OCPP.RemoteStartStopResponse
	e.logObs("remote start for tag " + req.IdTag + ": " + response)

	var after func()
	if response == protocol.StatusAccepted {
		connectorID := 1
		if req.ConnectorID != nil {
			connectorID = *req.ConnectorID
		}
		delay := e.cfg.RemoteStartDelay()
		// the delay simulates cable plug-in; it must not stall the dispatcher
		after = func() {
			go func() {
				time.Sleep(delay)
				if err := e.StartTransaction(req.IdTag, connectorID, 0); err != nil {
					e.logObs("remote start failed: " + err.Error())
				}
			}()
		}
	}

	return protocol.StatusResponse{Status: response}, after, nil
}

func (e *Engine) handleRemoteStopTransaction(payload json.RawMessage) (interface{}, func(), error) {
	req, err := ocpp.Decode[protocol.RemoteStopTransactionRequest](payload)
	if err != nil {
		return nil, nil, err
	}

	response := e.cfg.OCPP.RemoteStartStopResponse
	e.logObs("remote stop for transaction " + itoa(req.TransactionID) + ": " + response)

	var after func()
	if response == protocol.StatusAccepted {
		after = func() {
			go func() {
				if err := e.StopTransactionWithID(req.TransactionID, ""); err != nil {
					e.logObs("remote stop failed: " + err.Error())
				}
			}()
		}
	}

	return protocol.StatusResponse{Status: response}, after, nil
}

func (e *Engine) handleTriggerMessage(payload json.RawMessage) (interface{}, func(), error) {
	req, err := ocpp.Decode[protocol.TriggerMessageRequest](payload)
	if err != nil {
		return nil, nil, err
	}

	connectorID := 0
	if req.ConnectorID != nil {
		connectorID = *req.ConnectorID
	}

	var after func()
	switch req.RequestedMessage {
	case protocol.ActionBootNotification:
		after = func() {
			if err := e.sendBootNotification(); err != nil {
				e.logObs("triggered BootNotification failed: " + err.Error())
			}
		}
	case protocol.ActionHeartbeat:
		after = func() {
			if err := e.SendHeartbeat(); err != nil {
				e.logObs("triggered Heartbeat failed: " + err.Error())
			}
		}
	case protocol.ActionMeterValues:
		after = func() {
			if err := e.SendMeterValue(connectorID); err != nil {
				e.logObs("triggered MeterValues failed: " + err.Error())
			}
		}
	case protocol.ActionStatusNotification:
		after = func() {
			if err := e.sendStatusNotification(connectorID, e.conns.Status(connectorID)); err != nil {
				e.logObs("triggered StatusNotification failed: " + err.Error())
			}
		}
	case protocol.ActionDiagnosticsStatusNotification, protocol.ActionFirmwareStatusNotification:
		e.logObs("trigger " + req.RequestedMessage + " ignored")
	default:
		e.logObs("trigger for unknown message " + req.RequestedMessage)
	}

	return protocol.StatusResponse{Status: protocol.StatusAccepted}, after, nil
}

func (e *Engine) handleChangeAvailability(payload json.RawMessage) (interface{}, func(), error) {
	req, err := ocpp.Decode[protocol.ChangeAvailabilityRequest](payload)
	if err != nil {
		return nil, nil, err
	}

	e.logObs("change availability: connector " + itoa(req.ConnectorID) + " -> " + req.Type)
	after := func() {
		e.conns.SetAvailability(req.ConnectorID, req.Type)
	}
	return protocol.StatusResponse{Status: protocol.StatusAccepted}, after, nil
}

func (e *Engine) handleUnlockConnector(payload json.RawMessage) (interface{}, func(), error) {
	req, err := ocpp.Decode[protocol.UnlockConnectorRequest](payload)
	if err != nil {
		return nil, nil, err
	}

	// no physical lock to release
	e.logObs("unlock connector " + itoa(req.ConnectorID))
	return protocol.StatusResponse{Status: protocol.StatusAccepted}, nil, nil
}

func (e *Engine) handleGetConfiguration(payload json.RawMessage) (interface{}, func(), error) {
	return protocol.GetConfigurationResponse{
		ConfigurationKey: []protocol.ConfigurationKey{
			{Key: "HeartbeatInterval", Readonly: false, Value: "900"},
		},
		UnknownKey: []string{},
	}, nil, nil
}
