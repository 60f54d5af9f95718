package bridge

import (
	"errors"
	"fmt"

	"github.com/haivivi/voicebridge/pkg/mediastream"
)

var (
	// ErrMalformedFrame marks a single undecodable inbound message. It never
	// ends a call.
	ErrMalformedFrame = mediastream.ErrMalformedFrame

	// ErrTransportClosed is matched by every *TransportError.
	ErrTransportClosed = errors.New("bridge: transport closed")

	// ErrBackendRejected marks an error event reported by the voice backend.
	ErrBackendRejected = errors.New("bridge: backend rejected request")

	// ErrConfigurationInvalid is returned by Config.Validate.
	ErrConfigurationInvalid = errors.New("bridge: invalid configuration")

	// ErrAlreadyRunning is returned when Run is called a second time.
	ErrAlreadyRunning = errors.New("bridge: coordinator already started")
)

// Side names one of the two transports of a call.
type Side string

const (
	SideTelephony Side = "telephony"
	SideBackend   Side = "backend"
)

// TransportError reports that one side's connection closed or failed.
type TransportError struct {
	Side Side
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("bridge: %s transport closed", e.Side)
	}
	return fmt.Sprintf("bridge: %s transport closed: %v", e.Side, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransportClosed}
	}
	return []error{ErrTransportClosed, e.Err}
}

// BackendError is an error event reported by the voice backend. It matches
// ErrBackendRejected.
type BackendError struct {
	Type    string
	Code    string
	Message string
}

func (e *BackendError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("bridge: backend rejected request: %s: %s", e.Code, e.Message)
	case e.Type != "":
		return fmt.Sprintf("bridge: backend rejected request: %s: %s", e.Type, e.Message)
	default:
		return fmt.Sprintf("bridge: backend rejected request: %s", e.Message)
	}
}

func (e *BackendError) Unwrap() error {
	return ErrBackendRejected
}
