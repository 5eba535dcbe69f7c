package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrDispatcherRequired   = sterrors.New("hookbus: dispatcher is required")
	ErrListenerRequired     = sterrors.New("hookbus: listener is required")
	ErrHandlerRequired      = sterrors.New("hookbus: handler function is required")
	ErrKindRequired         = sterrors.New("hookbus: event kind is required")
	ErrKindsRequired        = sterrors.New("hookbus: listener declares no event kinds")
	ErrKindConflict         = sterrors.New("hookbus: event kind already defined with a different type")
	ErrCommandTokenRequired = sterrors.New("hookbus: command token is required")
	ErrOwnerNotComparable   = sterrors.New("hookbus: listener owner must be comparable")
	ErrDispatcherClosed     = sterrors.New("hookbus: dispatcher is closed")
	ErrEventRequired        = sterrors.New("hookbus: event is required")
	ErrCommandRequired      = sterrors.New("hookbus: command is required")
	ErrActorRequired        = sterrors.New("hookbus: command has no actor")
	ErrConfigRequired       = sterrors.New("hookbus: configuration is required")
	ErrLoggerRequired       = sterrors.New("hookbus: logger is required")
	ErrPublisherRequired    = sterrors.New("hookbus: publisher is required")
	ErrTopicRequired        = sterrors.New("hookbus: topic is required")
	ErrPublisherClosed      = sterrors.New("hookbus: publisher is closed")
)

// ConfigValidationError wraps configuration problems reported by Config.Validate.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "hookbus: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error { return e.Err }

// NewConfigValidationError returns nil when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}

// ListenerError records a failure raised by a listener during dispatch.
type ListenerError struct {
	Listener string
	Kind     string
	Err      error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("hookbus: listener %s failed handling %s: %v", e.Listener, e.Kind, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }

// PanicError is produced when a listener panics. Stack holds the goroutine
// stack captured at recovery time.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("hookbus: listener panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
