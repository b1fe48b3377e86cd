package realtime

import (
	"errors"
	"fmt"
	"net/url"
)

// Common error variables
var (
	// ErrClosed is returned when attempting to use a client that has been closed.
	// This error indicates the session was deliberately torn down and the client
	// is no longer usable. Create a new client to resume the conversation.
	ErrClosed = errors.New("realtime: connection is closed")

	// ErrInvalidConfig is returned when required configuration fields are missing.
	ErrInvalidConfig = errors.New("realtime: invalid configuration")

	// ErrConnectionFailed is returned when the WebSocket connection to the relay
	// cannot be established.
	ErrConnectionFailed = errors.New("realtime: connection failed")

	// ErrUpstreamRejected is returned when the relay accepted our connection but
	// never confirmed readiness of the upstream endpoint. This usually means the
	// relay could not reach or authenticate against the vendor endpoint.
	ErrUpstreamRejected = errors.New("realtime: relay could not reach upstream")

	// ErrDeviceUnavailable is returned when an audio device cannot be opened,
	// typically because microphone permission was denied or no device exists.
	ErrDeviceUnavailable = errors.New("realtime: audio device unavailable")
)

// ConfigError represents a configuration validation error.
// It provides detailed information about which configuration field is invalid.
type ConfigError struct {
	Field   string // The configuration field that is invalid
	Value   string // The invalid value (if safe to log)
	Message string // Detailed error message
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("realtime: invalid config field %q (value: %q): %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("realtime: invalid config field %q: %s", e.Field, e.Message)
}

// Is implements error matching for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ConnectionError represents a WebSocket connection error.
// It wraps underlying network errors with additional context.
type ConnectionError struct {
	URL       string // The WebSocket URL that failed to connect
	Cause     error  // The underlying error
	Operation string // The operation that failed (e.g., "dial", "handshake")
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("realtime: %s failed for %q: %v", e.Operation, e.URL, e.Cause)
	}
	return fmt.Sprintf("realtime: %s failed for %q", e.Operation, e.URL)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for ConnectionError.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnectionFailed
}

// DeviceError represents a failure to acquire or operate an audio device.
type DeviceError struct {
	Device string // "microphone" or "speaker"
	Cause  error  // The underlying platform error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("realtime: %s device error: %v", e.Device, e.Cause)
}

// Unwrap returns the underlying error.
func (e *DeviceError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for DeviceError.
func (e *DeviceError) Is(target error) bool {
	return target == ErrDeviceUnavailable
}

// ProtocolError represents a malformed inbound frame. Frames that fail to
// parse are logged and dropped at the read-loop boundary; one bad frame never
// terminates the connection. The type exists so the drop can be observed
// through OnProtocolError.
type ProtocolError struct {
	RawData []byte // The raw frame payload (truncated for logging)
	Cause   error  // The underlying parsing error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("realtime: malformed inbound frame: %v", e.Cause)
}

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// APIError is a vendor-reported error event, surfaced through OnError.
// It does not terminate the session.
type APIError struct {
	Kind    string // Error category reported by the endpoint
	Code    string // Vendor error code, if any
	Message string // Human-readable description
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime: api error [%s/%s]: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("realtime: api error [%s]: %s", e.Kind, e.Message)
}

// Helper functions for creating specific errors

// NewConfigError creates a new configuration error.
func NewConfigError(field, value, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewConnectionError creates a new connection error.
func NewConnectionError(url, operation string, cause error) *ConnectionError {
	return &ConnectionError{
		URL:       url,
		Operation: operation,
		Cause:     cause,
	}
}

// NewDeviceError creates a new audio device error.
func NewDeviceError(device string, cause error) *DeviceError {
	return &DeviceError{
		Device: device,
		Cause:  cause,
	}
}

// NewProtocolError creates a new malformed-frame error.
func NewProtocolError(rawData []byte, cause error) *ProtocolError {
	return &ProtocolError{
		RawData: rawData,
		Cause:   cause,
	}
}

// Validation helper functions

// ValidateConfig performs comprehensive configuration validation.
func ValidateConfig(cfg Config) error {
	if cfg.RelayURL == "" {
		return NewConfigError("RelayURL", "", "cannot be empty")
	}

	u, err := url.Parse(cfg.RelayURL)
	if err != nil {
		return NewConfigError("RelayURL", cfg.RelayURL, "invalid URL format")
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return NewConfigError("RelayURL", cfg.RelayURL, "scheme must be ws, wss, http or https")
	}

	if cfg.APIKey == "" && cfg.Token == "" {
		return NewConfigError("APIKey", "", "either APIKey or Token must be set")
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return NewConfigError("Temperature", fmt.Sprintf("%v", cfg.Temperature), "must be between 0.0 and 2.0")
	}

	if cfg.DialTimeout < 0 {
		return NewConfigError("DialTimeout", cfg.DialTimeout.String(), "cannot be negative")
	}
	if cfg.HeartbeatInterval < 0 {
		return NewConfigError("HeartbeatInterval", cfg.HeartbeatInterval.String(), "cannot be negative")
	}
	if cfg.ReconnectDelay < 0 {
		return NewConfigError("ReconnectDelay", cfg.ReconnectDelay.String(), "cannot be negative")
	}
	if cfg.MaxReconnectAttempts < 0 {
		return NewConfigError("MaxReconnectAttempts", fmt.Sprintf("%d", cfg.MaxReconnectAttempts), "cannot be negative")
	}

	return nil
}
