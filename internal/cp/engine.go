package cp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/config"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/metrics"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/ocpp"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/ocpp/protocol"
	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/store"
)

// CloseCodeClientDisconnect is the agreed clean client-initiated close code.
// Every other close code is treated as a connection error.
const CloseCodeClientDisconnect = 3001

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	sendBufferSize   = 32
	journalTimeout   = 3 * time.Second
)

// ErrNoConnection is returned when a command needs an open socket.
var ErrNoConnection = errors.New("cp: no connection to OCPP server")

// ErrAlreadyConnected is returned by Connect while a session is open.
var ErrAlreadyConnected = errors.New("cp: connection already open")

// Journal persists frames and transaction records. All methods are
// best-effort; a nil Journal disables persistence.
type Journal interface {
	SaveFrame(ctx context.Context, cpID, direction, action string, payload []byte) error
	SaveTransactionStart(ctx context.Context, cpID string, transactionID, connectorID int, idTag string, meterStart int, startedAt time.Time) error
	SaveTransactionStop(ctx context.Context, cpID string, transactionID, meterStop int, reason string, stoppedAt time.Time) error
}

// handlerFunc processes an inbound CALL payload. The returned after hook, if
// any, runs once the CALLRESULT has been enqueued, so side-effect CALLs never
// overtake the reply on the wire.
type handlerFunc func(payload json.RawMessage) (interface{}, func(), error)

// Engine owns the WebSocket session to the central system and implements the
// charge point side of OCPP 1.6: outbound calls with reply correlation,
// inbound call handling, heartbeats, and per-connector state.
type Engine struct {
	cfg      *config.Config
	logger   *zap.Logger
	observer Observer
	journal  Journal

	session *store.Memory
	durable store.Store
	conns   *Connectors
	pending *ocpp.PendingCalls
	heart   *Heartbeat

	handlers map[string]handlerFunc

	mu         sync.Mutex
	ws         *websocket.Conn
	send       chan []byte
	closing    bool
	cpID       string
	startingTx startContext
}

// startContext remembers what the last StartTransaction was sent for, so the
// journal can attribute the server-assigned transaction id.
type startContext struct {
	connectorID int
	idTag       string
}

// New wires the engine. durable survives restarts; observer and journal may
// be nil.
func New(cfg *config.Config, durable store.Store, observer Observer, jrnl Journal, logger *zap.Logger) *Engine {
	if observer == nil {
		observer = noopObserver{}
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		journal:  jrnl,
		session:  store.NewMemory(),
		durable:  durable,
	}

	e.pending = ocpp.NewPendingCalls(cfg.CallTimeout(), e.onCallTimeout)
	e.heart = NewHeartbeat(func() {
		if err := e.SendHeartbeat(); err != nil {
			logger.Warn("heartbeat send failed", zap.Error(err))
		}
	})
	e.conns = NewConnectors(
		e.session,
		durable,
		func(connectorID int, status string) {
			if err := e.sendStatusNotification(connectorID, status); err != nil {
				logger.Warn("status notification failed", zap.Int("connector_id", connectorID), zap.Error(err))
			}
		},
		observer.OnAvailabilityChange,
		logger,
	)
	e.registerHandlers()

	e.session.Put(store.KeyCPStatus, string(StatusDisconnected))
	return e
}

// Status returns the current charge-point status.
func (e *Engine) Status() CPStatus {
	return CPStatus(e.session.Get(store.KeyCPStatus, string(StatusDisconnected)))
}

// Connect opens the WebSocket session and sends BootNotification. A second
// connect while one is open is refused: the old socket is closed with 3001
// and ERROR is emitted; the caller may retry once the close settles.
func (e *Engine) Connect(wsURL, cpID string) error {
	e.mu.Lock()
	if e.ws != nil {
		old := e.ws
		e.mu.Unlock()
		e.logObs("connect refused: a connection is already open")
		e.setStatus(StatusError, "connection already open")
		_ = old.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseCodeClientDisconnect, "superseded"),
			time.Now().Add(writeTimeout))
		_ = old.Close()
		return ErrAlreadyConnected
	}
	e.closing = false
	e.mu.Unlock()

	e.session.Clear()
	e.session.Put(store.KeyMeterValue, "0")
	e.setStatus(StatusConnecting, "")

	e.durable.Put(store.KeyWSURL, wsURL)
	e.durable.Put(store.KeyCPID, cpID)

	url := wsURL + cpID
	dialer := websocket.Dialer{
		Subprotocols:     protocol.Subprotocols,
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		e.logObs("connection cannot be opened: " + err.Error())
		e.setStatus(StatusError, "connection cannot be opened")
		return err
	}

	if !offeredSubprotocol(conn.Subprotocol()) {
		_ = conn.Close()
		e.logObs("server selected no supported subprotocol")
		e.setStatus(StatusError, "subprotocol negotiation failed")
		return errors.New("cp: subprotocol negotiation failed")
	}

	e.mu.Lock()
	e.ws = conn
	e.send = make(chan []byte, sendBufferSize)
	e.cpID = cpID
	send := e.send
	e.mu.Unlock()

	metrics.Connected.Set(1)
	e.logObs("connected to " + url + " (" + conn.Subprotocol() + ")")

	go e.writePump(conn, send)
	go e.readPump(conn)

	return e.sendBootNotification()
}

// Disconnect closes the session with code 3001 and forces DISCONNECTED.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	conn := e.ws
	e.closing = true
	e.mu.Unlock()

	e.heart.Stop()
	e.pending.DropAll()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseCodeClientDisconnect, "client disconnect"),
			time.Now().Add(writeTimeout))
		_ = conn.Close()
	}

	e.setStatus(StatusDisconnected, "")
}

// ConnectorStatus returns a connector's session status.
func (e *Engine) ConnectorStatus(connectorID int) string {
	return e.conns.Status(connectorID)
}

// SetConnectorStatus writes a connector's session status, optionally
// notifying the server.
func (e *Engine) SetConnectorStatus(connectorID int, status string, updateServer bool) {
	e.conns.SetStatus(connectorID, status, updateServer)
}

// Availability returns a connector's durable availability.
func (e *Engine) Availability(connectorID int) string {
	return e.conns.Availability(connectorID)
}

// SetConnectorAvailability writes a connector's durable availability with the
// cascade and status rules of the connector model.
func (e *Engine) SetConnectorAvailability(connectorID int, availability string) {
	e.conns.SetAvailability(connectorID, availability)
}

// MeterValueWh returns the simulated meter register.
func (e *Engine) MeterValueWh() int {
	return atoi(e.session.Get(store.KeyMeterValue, "0"), 0)
}

// SetMeterValue updates the meter register; when updateServer is set a
// MeterValues call is sent with the new reading.
func (e *Engine) SetMeterValue(wh int, updateServer bool) {
	if wh < 0 {
		wh = 0
	}
	e.session.Put(store.KeyMeterValue, itoa(wh))
	e.observer.OnMeterValueChange(wh)
	if updateServer {
		if err := e.SendMeterValue(0); err != nil {
			e.logger.Warn("meter values send failed", zap.Error(err))
		}
	}
}

// TransactionID returns the server-assigned transaction id, ok=false while
// no StartTransaction has been accepted this session.
func (e *Engine) TransactionID() (int, bool) {
	raw := e.session.Get(store.KeyTransactionID, "")
	if raw == "" {
		return 0, false
	}
	return atoi(raw, 0), true
}

func (e *Engine) readPump(conn *websocket.Conn) {
	defer e.cleanup(conn)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			e.handleSocketClosed(err)
			return
		}
		e.dispatch(raw)
	}
}

func (e *Engine) writePump(conn *websocket.Conn, send <-chan []byte) {
	for raw := range send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			e.logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (e *Engine) handleSocketClosed(err error) {
	e.mu.Lock()
	closing := e.closing
	e.mu.Unlock()

	if closing || websocket.IsCloseError(err, CloseCodeClientDisconnect) {
		if e.Status() != StatusDisconnected {
			e.logObs("disconnected")
			e.setStatus(StatusDisconnected, "")
		}
		return
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		e.logObs(fmt.Sprintf("Connection error: %d", closeErr.Code))
		e.setStatus(StatusError, fmt.Sprintf("Connection error: %d", closeErr.Code))
		return
	}

	e.logObs("ws normal error: " + err.Error())
	e.setStatus(StatusError, "ws normal error")
}

func (e *Engine) cleanup(conn *websocket.Conn) {
	e.heart.Stop()
	e.pending.DropAll()

	e.mu.Lock()
	if e.ws == conn {
		e.ws = nil
		if e.send != nil {
			close(e.send)
			e.send = nil
		}
	}
	e.mu.Unlock()

	_ = conn.Close()
	metrics.Connected.Set(0)
}

// dispatch decodes one inbound frame and routes it by message type.
func (e *Engine) dispatch(raw []byte) {
	msg, err := ocpp.Parse(raw)
	if err != nil {
		if errors.Is(err, ocpp.ErrUnknownMessageType) {
			e.logObs("dropping frame: " + err.Error())
			return
		}
		// malformed JSON: flag the session but keep the socket, the
		// server may recover
		e.logObs("malformed frame: " + err.Error())
		e.setStatus(StatusError, "malformed message")
		return
	}

	metrics.FramesReceived.WithLabelValues(itoa(msg.MessageType)).Inc()

	switch msg.MessageType {
	case protocol.MessageTypeCall:
		e.journalFrame("in", msg.Action, raw)
		e.handleCall(msg)
	case protocol.MessageTypeCallResult:
		e.handleCallResult(msg, raw)
	case protocol.MessageTypeCallError:
		e.handleCallError(msg, raw)
	}
}

func (e *Engine) handleCall(msg *ocpp.Message) {
	handler, ok := e.handlers[msg.Action]
	if !ok {
		e.logObs("unsupported action " + msg.Action)
		e.replyError(msg.UniqueID, protocol.ErrorNotImplemented, "no handler for "+msg.Action)
		return
	}

	resp, after, err := handler(msg.Payload)
	if err != nil {
		e.logObs(msg.Action + " handler failed: " + err.Error())
		e.replyError(msg.UniqueID, protocol.ErrorInternalError, err.Error())
		return
	}

	raw, err := ocpp.BuildCallResult(msg.UniqueID, resp)
	if err != nil {
		e.logger.Error("encode call result failed", zap.String("action", msg.Action), zap.Error(err))
		return
	}
	if err := e.enqueueFrame(raw, msg.Action); err != nil {
		e.logger.Warn("reply dropped, no connection", zap.String("action", msg.Action))
	}
	if after != nil {
		after()
	}
}

func (e *Engine) handleCallResult(msg *ocpp.Message, raw []byte) {
	action, ok := e.pending.Resolve(msg.UniqueID)
	if !ok {
		e.logObs("unmatched CALLRESULT " + msg.UniqueID + ", dropping")
		return
	}
	e.journalFrame("in", action, raw)
	e.onCallResult(action, msg.Payload)
}

func (e *Engine) handleCallError(msg *ocpp.Message, raw []byte) {
	metrics.CallErrors.Inc()
	action, ok := e.pending.Resolve(msg.UniqueID)
	if !ok {
		e.logObs("unmatched CALLERROR " + msg.UniqueID + ", dropping")
		return
	}
	e.journalFrame("in", action, raw)
	e.logObs(fmt.Sprintf("CALLERROR for %s: %s (%s)", action, msg.ErrorCode, msg.ErrorDescription))
}

func (e *Engine) replyError(uniqueID, code, description string) {
	raw, err := ocpp.BuildCallError(uniqueID, code, description)
	if err != nil {
		e.logger.Error("encode call error failed", zap.Error(err))
		return
	}
	if err := e.enqueueFrame(raw, code); err != nil {
		e.logger.Warn("call error reply dropped, no connection")
	}
}

// sendCall encodes an outbound CALL, records it in the pending table, and
// hands it to the write pump.
func (e *Engine) sendCall(action string, payload interface{}) error {
	id := ocpp.NewUniqueID()
	raw, err := ocpp.BuildCall(id, action, payload)
	if err != nil {
		return err
	}

	e.session.Put(store.KeyLastAction, action)
	e.pending.Register(id, action)

	if err := e.enqueueFrame(raw, action); err != nil {
		e.pending.Resolve(id)
		e.logObs("No connection to OCPP server")
		e.setStatus(StatusError, "No connection to OCPP server")
		return err
	}

	metrics.CallsSent.WithLabelValues(action).Inc()
	return nil
}

func (e *Engine) enqueueFrame(raw []byte, action string) error {
	e.mu.Lock()
	if e.ws == nil || e.send == nil {
		e.mu.Unlock()
		return ErrNoConnection
	}
	select {
	case e.send <- raw:
	default:
		e.mu.Unlock()
		e.logger.Warn("dropping outgoing frame, buffer full", zap.String("action", action))
		return errors.New("cp: send buffer full")
	}
	e.mu.Unlock()

	e.journalFrame("out", action, raw)
	return nil
}

func (e *Engine) onCallTimeout(uniqueID, action string) {
	metrics.CallTimeouts.Inc()
	e.logObs(fmt.Sprintf("call %s (%s) timed out waiting for reply", uniqueID, action))
}

// setStatus writes the charge-point status and publishes it before any
// further message is processed on the calling goroutine.
func (e *Engine) setStatus(status CPStatus, detail string) {
	prev := e.Status()
	if !ValidTransition(prev, status) {
		e.logger.Warn("irregular status transition",
			zap.String("from", string(prev)),
			zap.String("to", string(status)))
	}

	e.session.Put(store.KeyCPStatus, string(status))
	e.logger.Info("status changed",
		zap.String("from", string(prev)),
		zap.String("to", string(status)),
		zap.String("detail", detail))
	e.observer.OnStatusChange(status, detail)
}

// logObs logs through zap and mirrors the line to the observer.
func (e *Engine) logObs(message string) {
	e.logger.Info(message)
	e.observer.OnLog("[OCPP] " + message)
}

func (e *Engine) journalFrame(direction, action string, raw []byte) {
	if e.journal == nil {
		return
	}
	e.mu.Lock()
	cpID := e.cpID
	e.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := e.journal.SaveFrame(ctx, cpID, direction, action, raw); err != nil {
		e.logger.Warn("frame journal failed", zap.Error(err))
	}
}

func offeredSubprotocol(negotiated string) bool {
	for _, sp := range protocol.Subprotocols {
		if sp == negotiated {
			return true
		}
	}
	return false
}
