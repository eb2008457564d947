package cp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/metrics"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/ocpp"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/ocpp/protocol"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/store"
)

func (e *Engine) sendBootNotification() error {
	id := e.cfg.Identity
	return e.sendCall(protocol.ActionBootNotification, protocol.BootNotificationRequest{
		ChargePointVendor:       id.Vendor,
		ChargePointModel:        id.Model,
		ChargePointSerialNumber: id.SerialNumber,
		ChargeBoxSerialNumber:   id.BoxSerialNumber,
		FirmwareVersion:         id.FirmwareVersion,
		MeterType:               id.MeterType,
		MeterSerialNumber:       id.MeterSerialNumber,
	})
}

// Authorize presents an idTag to the central system. The tag is remembered
// in the durable store for operator convenience.
func (e *Engine) Authorize(tagID string) error {
	e.durable.Put(store.KeyTag, tagID)
	return e.sendCall(protocol.ActionAuthorize, protocol.AuthorizeRequest{IdTag: tagID})
}

// StartTransaction begins a charging transaction: the meter resets to zero,
// the status moves to IN_TRANSACTION, the connector goes Charging with a
// StatusNotification, and the StartTransaction CALL is sent. connectorID <= 0
// selects connector 1.
func (e *Engine) StartTransaction(tagID string, connectorID, reservationID int) error {
	if connectorID <= 0 {
		connectorID = 1
	}

	e.session.Put(store.KeyMeterValue, "0")
	e.observer.OnMeterValueChange(0)

	e.mu.Lock()
	e.startingTx = startContext{connectorID: connectorID, idTag: tagID}
	e.mu.Unlock()

	e.setStatus(StatusInTransaction, "")

	err := e.sendCall(protocol.ActionStartTransaction, protocol.StartTransactionRequest{
		ConnectorID:   connectorID,
		IdTag:         tagID,
		MeterStart:    0,
		Timestamp:     protocol.FormatTimestamp(time.Now()),
		ReservationID: reservationID,
	})
	if err != nil {
		return err
	}

	e.conns.SetStatus(connectorID, protocol.ConnectorCharging, true)
	return nil
}

// StopTransaction ends the current transaction. Without a known transaction
// id the call is still sent with id zero, per the simulation profile.
func (e *Engine) StopTransaction(tagID string) error {
	txID, ok := e.TransactionID()
	if !ok {
		e.logObs("stopping without a known transaction id")
	}
	return e.StopTransactionWithID(txID, tagID)
}

// StopTransactionWithID ends the transaction with the given id. The meter
// reading becomes meterStop; transactionData carries the begin/end register
// values; connector 1 moves to Finishing without notify (the server queries).
func (e *Engine) StopTransactionWithID(transactionID int, tagID string) error {
	meterStop := e.MeterValueWh()
	now := time.Now()

	err := e.sendCall(protocol.ActionStopTransaction, protocol.StopTransactionRequest{
		TransactionID: transactionID,
		IdTag:         tagID,
		Timestamp:     protocol.FormatTimestamp(now),
		MeterStop:     meterStop,
		Reason:        protocol.StopReasonLocal,
		TransactionData: []protocol.MeterValue{
			{
				Timestamp:    protocol.FormatTimestamp(now),
				SampledValue: []protocol.SampledValue{energySample("0", "Transaction.Begin")},
			},
			{
				Timestamp:    protocol.FormatTimestamp(now),
				SampledValue: []protocol.SampledValue{energySample(itoa(meterStop), "Transaction.End")},
			},
		},
	})
	if err != nil {
		return err
	}

	e.setStatus(StatusAuthorized, "")
	e.conns.SetStatus(1, protocol.ConnectorFinishing, false)
	return nil
}

// SendHeartbeat sends a single Heartbeat CALL.
func (e *Engine) SendHeartbeat() error {
	return e.sendCall(protocol.ActionHeartbeat, protocol.HeartbeatRequest{})
}

// SendMeterValue reports the current meter register for the connector.
func (e *Engine) SendMeterValue(connectorID int) error {
	txID, ok := e.TransactionID()
	if !ok {
		e.logObs("sending meter values without a transaction id")
	}

	return e.sendCall(protocol.ActionMeterValues, protocol.MeterValuesRequest{
		ConnectorID:   connectorID,
		TransactionID: txID,
		MeterValue: []protocol.MeterValue{
			{
				Timestamp:    protocol.FormatTimestamp(time.Now()),
				SampledValue: []protocol.SampledValue{energySample(itoa(e.MeterValueWh()), "Sample.Periodic")},
			},
		},
	})
}

func (e *Engine) sendStatusNotification(connectorID int, status string) error {
	return e.sendCall(protocol.ActionStatusNotification, protocol.StatusNotificationRequest{
		ConnectorID:     connectorID,
		Status:          status,
		ErrorCode:       protocol.NoError,
		Info:            "",
		Timestamp:       protocol.FormatTimestamp(time.Now()),
		VendorID:        "",
		VendorErrorCode: "",
	})
}

// onCallResult routes a CALLRESULT to the handler for the action the
// pending-call table associated with its unique id.
func (e *Engine) onCallResult(action string, payload json.RawMessage) {
	switch action {
	case protocol.ActionBootNotification:
		e.onBootNotificationResult(payload)
	case protocol.ActionAuthorize:
		e.onAuthorizeResult(payload)
	case protocol.ActionStartTransaction:
		e.onStartTransactionResult(payload)
	case protocol.ActionStopTransaction:
		e.onStopTransactionResult()
	case protocol.ActionHeartbeat:
		e.onHeartbeatResult(payload)
	case protocol.ActionMeterValues, protocol.ActionStatusNotification:
		e.logger.Debug("call acknowledged", zap.String("action", action))
	default:
		e.logger.Debug("unhandled call result", zap.String("action", action))
	}
}

func (e *Engine) onBootNotificationResult(payload json.RawMessage) {
	resp, err := ocpp.Decode[protocol.BootNotificationResponse](payload)
	if err != nil {
		e.logObs("decode BootNotification response: " + err.Error())
		return
	}

	if resp.Status != protocol.RegistrationAccepted {
		e.logObs("boot notification " + resp.Status + ", disconnecting")
		e.Disconnect()
		return
	}

	e.logObs(fmt.Sprintf("boot accepted, heartbeat interval %ds", resp.Interval))
	metrics.HeartbeatInterval.Set(float64(resp.Interval))
	e.heart.Arm(time.Duration(resp.Interval) * time.Second)
	e.setStatus(StatusConnected, "")
}

func (e *Engine) onAuthorizeResult(payload json.RawMessage) {
	resp, err := ocpp.Decode[protocol.AuthorizeResponse](payload)
	if err != nil {
		e.logObs("decode Authorize response: " + err.Error())
		return
	}

	if resp.IdTagInfo.Status == protocol.AuthorizationInvalid {
		e.logObs("authorization invalid")
		return
	}

	e.logObs("authorized (" + resp.IdTagInfo.Status + ")")
	e.setStatus(StatusAuthorized, "")
}

func (e *Engine) onStartTransactionResult(payload json.RawMessage) {
	resp, err := ocpp.Decode[protocol.StartTransactionResponse](payload)
	if err != nil {
		e.logObs("decode StartTransaction response: " + err.Error())
		return
	}

	// a missing or zero transactionId must not overwrite the stored one
	if resp.TransactionID == 0 {
		e.logObs("start transaction response without transaction id, keeping current")
		return
	}

	e.session.Put(store.KeyTransactionID, itoa(resp.TransactionID))
	e.logObs(fmt.Sprintf("transaction %d started", resp.TransactionID))

	if e.journal != nil {
		e.mu.Lock()
		sc := e.startingTx
		cpID := e.cpID
		e.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()
		if err := e.journal.SaveTransactionStart(ctx, cpID, resp.TransactionID, sc.connectorID, sc.idTag, 0, time.Now().UTC()); err != nil {
			e.logger.Warn("transaction journal failed", zap.Error(err))
		}
	}
}

func (e *Engine) onStopTransactionResult() {
	e.conns.SetStatus(1, protocol.ConnectorAvailable, false)
	e.logObs("transaction stopped")

	if e.journal != nil {
		txID, _ := e.TransactionID()
		e.mu.Lock()
		cpID := e.cpID
		e.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()
		if err := e.journal.SaveTransactionStop(ctx, cpID, txID, e.MeterValueWh(), protocol.StopReasonLocal, time.Now().UTC()); err != nil {
			e.logger.Warn("transaction journal failed", zap.Error(err))
		}
	}
}

func (e *Engine) onHeartbeatResult(payload json.RawMessage) {
	resp, err := ocpp.Decode[protocol.HeartbeatResponse](payload)
	if err != nil {
		e.logObs("decode Heartbeat response: " + err.Error())
		return
	}
	e.logObs("heartbeat acknowledged, server time " + resp.CurrentTime)
}

func energySample(value, sampleContext string) protocol.SampledValue {
	return protocol.SampledValue{
		Value:     value,
		Context:   sampleContext,
		Format:    "Raw",
		Measurand: "Energy.Active.Import.Register",
		Location:  "Outlet",
		Unit:      "Wh",
	}
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func atoi(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
