package ocpp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonEriksson978/ocpp-cp-simulator/internal/ocpp/protocol"
)

// Message represents a parsed OCPP-J frame of any of the three envelope shapes.
type Message struct {
	MessageType      int
	UniqueID         string
	Action           string          // CALL only
	Payload          json.RawMessage // CALL and CALLRESULT
	ErrorCode        string          // CALLERROR only
	ErrorDescription string          // CALLERROR only
	ErrorDetails     json.RawMessage // CALLERROR only
}

// ErrUnknownMessageType marks a frame whose leading tag is not 2, 3 or 4.
var ErrUnknownMessageType = errors.New("ocpp: unknown message type")

var idGenerator = func() string { return uuid.New().String() }

// NewUniqueID returns a fresh message id for an outbound CALL.
func NewUniqueID() string {
	return idGenerator()
}

// Parse decodes raw bytes into a Message.
func Parse(data []byte) (*Message, error) {
	var array []json.RawMessage
	if err := json.Unmarshal(data, &array); err != nil {
		return nil, fmt.Errorf("ocpp: malformed frame: %w", err)
	}

	if len(array) < 3 {
		return nil, errors.New("ocpp: malformed frame: too few elements")
	}

	var msgType int
	if err := json.Unmarshal(array[0], &msgType); err != nil {
		return nil, fmt.Errorf("ocpp: read message type: %w", err)
	}

	msg := &Message{MessageType: msgType}
	if err := json.Unmarshal(array[1], &msg.UniqueID); err != nil {
		return nil, fmt.Errorf("ocpp: read unique id: %w", err)
	}

	switch msgType {
	case protocol.MessageTypeCall:
		if len(array) < 4 {
			return nil, errors.New("ocpp: incomplete CALL frame")
		}
		if err := json.Unmarshal(array[2], &msg.Action); err != nil {
			return nil, fmt.Errorf("ocpp: read action: %w", err)
		}
		msg.Payload = array[3]
	case protocol.MessageTypeCallResult:
		msg.Payload = array[2]
	case protocol.MessageTypeCallError:
		if len(array) < 5 {
			return nil, errors.New("ocpp: incomplete CALLERROR frame")
		}
		if err := json.Unmarshal(array[2], &msg.ErrorCode); err != nil {
			return nil, fmt.Errorf("ocpp: read error code: %w", err)
		}
		if err := json.Unmarshal(array[3], &msg.ErrorDescription); err != nil {
			return nil, fmt.Errorf("ocpp: read error description: %w", err)
		}
		msg.ErrorDetails = array[4]
	default:
		return nil, fmt.Errorf("%w %d", ErrUnknownMessageType, msgType)
	}

	return msg, nil
}

// BuildCall builds a CALL frame for an outbound request.
func BuildCall(uniqueID, action string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	frame := []interface{}{protocol.MessageTypeCall, uniqueID, action, json.RawMessage(body)}
	return json.Marshal(frame)
}

// BuildCallResult builds a CALLRESULT reply to an inbound CALL.
func BuildCallResult(uniqueID string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	frame := []interface{}{protocol.MessageTypeCallResult, uniqueID, json.RawMessage(body)}
	return json.Marshal(frame)
}

// BuildCallError builds a CALLERROR reply to an inbound CALL.
func BuildCallError(uniqueID, code, description string) ([]byte, error) {
	frame := []interface{}{protocol.MessageTypeCallError, uniqueID, code, description, map[string]string{}}
	return json.Marshal(frame)
}

// Decode convenience helper for handlers.
func Decode[T any](payload json.RawMessage) (T, error) {
	var target T
	if err := json.Unmarshal(payload, &target); err != nil {
		var zero T
		return zero, err
	}
	return target, nil
}
