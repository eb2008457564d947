package protocol

// MessageType values as per OCPP-J 1.6.
const (
	MessageTypeCall       = 2
	MessageTypeCallResult = 3
	MessageTypeCallError  = 4
)

// Actions originated by the charge point.
const (
	ActionAuthorize                     = "Authorize"
	ActionBootNotification              = "BootNotification"
	ActionDiagnosticsStatusNotification = "DiagnosticsStatusNotification"
	ActionFirmwareStatusNotification    = "FirmwareStatusNotification"
	ActionHeartbeat                     = "Heartbeat"
	ActionMeterValues                   = "MeterValues"
	ActionStartTransaction              = "StartTransaction"
	ActionStatusNotification            = "StatusNotification"
	ActionStopTransaction               = "StopTransaction"
)

// Actions originated by the central system.
const (
	ActionChangeAvailability     = "ChangeAvailability"
	ActionGetConfiguration       = "GetConfiguration"
	ActionRemoteStartTransaction = "RemoteStartTransaction"
	ActionRemoteStopTransaction  = "RemoteStopTransaction"
	ActionReset                  = "Reset"
	ActionTriggerMessage         = "TriggerMessage"
	ActionUnlockConnector        = "UnlockConnector"
)

// Registration status returned in a BootNotification confirmation.
const (
	RegistrationAccepted = "Accepted"
	RegistrationPending  = "Pending"
	RegistrationRejected = "Rejected"
)

// Generic request status used by most central-system commands.
const (
	StatusAccepted = "Accepted"
	StatusRejected = "Rejected"
)

// Authorization status values inside idTagInfo.
const (
	AuthorizationAccepted = "Accepted"
	AuthorizationBlocked  = "Blocked"
	AuthorizationExpired  = "Expired"
	AuthorizationInvalid  = "Invalid"
)

// Connector status values (StatusNotification subset used by the simulator).
const (
	ConnectorAvailable   = "Available"
	ConnectorCharging    = "Charging"
	ConnectorFinishing   = "Finishing"
	ConnectorUnavailable = "Unavailable"
)

// Connector availability as carried by ChangeAvailability.
const (
	AvailabilityOperative   = "Operative"
	AvailabilityInoperative = "Inoperative"
)

// Error codes for CALLERROR frames.
const (
	ErrorNotImplemented = "NotImplemented"
	ErrorInternalError  = "InternalError"
)

// NoError is the errorCode sent with every StatusNotification.
const NoError = "NoError"

// StopReasonLocal is the reason attached to operator-initiated StopTransaction.
const StopReasonLocal = "Local"

// Subprotocols offered during the WebSocket handshake, most preferred first.
var Subprotocols = []string{"ocpp1.6", "ocpp1.5"}
