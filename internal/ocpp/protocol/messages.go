package protocol

import "time"

// FormatTimestamp renders t the way OCPP-J expects it on the wire:
// ISO-8601 in UTC with a trailing Z, second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// BootNotificationRequest carries the fixed identity block.
type BootNotificationRequest struct {
	ChargePointVendor       string `json:"chargePointVendor"`
	ChargePointModel        string `json:"chargePointModel"`
	ChargePointSerialNumber string `json:"chargePointSerialNumber"`
	ChargeBoxSerialNumber   string `json:"chargeBoxSerialNumber"`
	FirmwareVersion         string `json:"firmwareVersion"`
	MeterType               string `json:"meterType"`
	MeterSerialNumber       string `json:"meterSerialNumber"`
}

// BootNotificationResponse confirmation.
type BootNotificationResponse struct {
	Status      string `json:"status"`
	CurrentTime string `json:"currentTime"`
	Interval    int    `json:"interval"`
}

// IdTagInfo authorization block.
type IdTagInfo struct {
	Status string `json:"status"`
}

// AuthorizeRequest payload.
type AuthorizeRequest struct {
	IdTag string `json:"idTag"`
}

// AuthorizeResponse confirmation.
type AuthorizeResponse struct {
	IdTagInfo IdTagInfo `json:"idTagInfo"`
}

// StartTransactionRequest payload.
type StartTransactionRequest struct {
	ConnectorID   int    `json:"connectorId"`
	IdTag         string `json:"idTag"`
	MeterStart    int    `json:"meterStart"`
	Timestamp     string `json:"timestamp"`
	ReservationID int    `json:"reservationId"`
}

// StartTransactionResponse confirmation.
type StartTransactionResponse struct {
	TransactionID int       `json:"transactionId"`
	IdTagInfo     IdTagInfo `json:"idTagInfo"`
}

// SampledValue is a single meter sample.
type SampledValue struct {
	Value     string `json:"value"`
	Context   string `json:"context"`
	Format    string `json:"format"`
	Measurand string `json:"measurand"`
	Location  string `json:"location"`
	Unit      string `json:"unit"`
}

// MeterValue groups samples taken at one instant.
type MeterValue struct {
	Timestamp    string         `json:"timestamp"`
	SampledValue []SampledValue `json:"sampledValue"`
}

// MeterValuesRequest payload.
type MeterValuesRequest struct {
	ConnectorID   int          `json:"connectorId"`
	TransactionID int          `json:"transactionId"`
	MeterValue    []MeterValue `json:"meterValue"`
}

// MeterValuesResponse ack.
type MeterValuesResponse struct{}

// StopTransactionRequest payload. IdTag is optional on the wire.
type StopTransactionRequest struct {
	TransactionID   int          `json:"transactionId"`
	IdTag           string       `json:"idTag,omitempty"`
	Timestamp       string       `json:"timestamp"`
	MeterStop       int          `json:"meterStop"`
	Reason          string       `json:"reason"`
	TransactionData []MeterValue `json:"transactionData"`
}

// StopTransactionResponse confirmation.
type StopTransactionResponse struct {
	IdTagInfo *IdTagInfo `json:"idTagInfo,omitempty"`
}

// HeartbeatRequest is empty.
type HeartbeatRequest struct{}

// HeartbeatResponse returns server time.
type HeartbeatResponse struct {
	CurrentTime string `json:"currentTime"`
}

// StatusNotificationRequest payload.
type StatusNotificationRequest struct {
	ConnectorID     int    `json:"connectorId"`
	Status          string `json:"status"`
	ErrorCode       string `json:"errorCode"`
	Info            string `json:"info"`
	Timestamp       string `json:"timestamp"`
	VendorID        string `json:"vendorId"`
	VendorErrorCode string `json:"vendorErrorCode"`
}

// StatusNotificationResponse ack.
type StatusNotificationResponse struct{}

// DiagnosticsStatusNotificationRequest payload.
type DiagnosticsStatusNotificationRequest struct {
	Status string `json:"status"`
}

// FirmwareStatusNotificationRequest payload.
type FirmwareStatusNotificationRequest struct {
	Status string `json:"status"`
}

// ResetRequest from the central system.
type ResetRequest struct {
	Type string `json:"type"`
}

// RemoteStartTransactionRequest from the central system.
type RemoteStartTransactionRequest struct {
	IdTag       string `json:"idTag"`
	ConnectorID *int   `json:"connectorId,omitempty"`
}

// RemoteStopTransactionRequest from the central system.
type RemoteStopTransactionRequest struct {
	TransactionID int `json:"transactionId"`
}

// TriggerMessageRequest from the central system.
type TriggerMessageRequest struct {
	RequestedMessage string `json:"requestedMessage"`
	ConnectorID      *int   `json:"connectorId,omitempty"`
}

// ChangeAvailabilityRequest from the central system.
type ChangeAvailabilityRequest struct {
	ConnectorID int    `json:"connectorId"`
	Type        string `json:"type"`
}

// UnlockConnectorRequest from the central system.
type UnlockConnectorRequest struct {
	ConnectorID int `json:"connectorId"`
}

// GetConfigurationRequest from the central system.
type GetConfigurationRequest struct {
	Key []string `json:"key,omitempty"`
}

// ConfigurationKey entry in a GetConfiguration confirmation.
type ConfigurationKey struct {
	Key      string `json:"key"`
	Readonly bool   `json:"readonly"`
	Value    string `json:"value"`
}

// GetConfigurationResponse confirmation.
type GetConfigurationResponse struct {
	ConfigurationKey []ConfigurationKey `json:"configurationKey"`
	UnknownKey       []string           `json:"unknownKey"`
}

// StatusResponse is the generic {status} confirmation body.
type StatusResponse struct {
	Status string `json:"status"`
}
