package atom

import (
	"errors"
	"fmt"
)

var (
	ErrNotReadable         = errors.New("atom: signal is not readable")
	ErrNotWritable         = errors.New("atom: signal is not writable")
	ErrInvalidValue        = errors.New("atom: invalid value")
	ErrEffectMounted       = errors.New("atom: effect is already mounted")
	ErrInterceptorContract = errors.New("atom: interceptor must call next exactly once before returning")
	ErrAborted             = errors.New("atom: aborted")
)

// PanicError carries a value recovered from a computed read function.
type PanicError struct {
	Label string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("atom: %s panicked: %v", e.Label, e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// sameError reports whether two evaluation errors are indistinguishable for
// change detection.
func sameError(a, b error) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	return a.Error() == b.Error()
}

func abortedBy(label string) error {
	return fmt.Errorf("%w: %s", ErrAborted, label)
}
