package eventstreams

import (
	"errors"
	"fmt"
)

// Kind classifies provider errors.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in the provider
	KindUnknown Kind = iota
	// KindRegistry means the caller has no configured client
	KindRegistry
	// KindConfiguration means a bind supplied a malformed or unreachable endpoint
	KindConfiguration
	// KindStore means the backing store rejected or failed a command
	KindStore
	// KindDecode means an inbound payload could not be decoded
	KindDecode
	// KindDispatch means the operation is not recognized for the caller
	KindDispatch
)

func (k Kind) String() string {
	switch k {
	case KindRegistry:
		return "registry"
	case KindConfiguration:
		return "configuration"
	case KindStore:
		return "store"
	case KindDecode:
		return "decode"
	case KindDispatch:
		return "dispatch"
	default:
		return "unknown"
	}
}

// ParseKind returns the Kind whose String form is name, or KindUnknown.
func ParseKind(name string) Kind {
	for k := KindRegistry; k <= KindDispatch; k++ {
		if k.String() == name {
			return k
		}
	}
	return KindUnknown
}

// Sentinel errors, one per kind. Match them with errors.Is.
var (
	ErrRegistry      = errors.New("actor not configured")
	ErrConfiguration = errors.New("invalid configuration")
	ErrStore         = errors.New("store command failed")
	ErrDecode        = errors.New("payload could not be decoded")
	ErrDispatch      = errors.New("bad dispatch")
)

// Error is returned by every provider operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindRegistry:
		return target == ErrRegistry
	case KindConfiguration:
		return target == ErrConfiguration
	case KindStore:
		return target == ErrStore
	case KindDecode:
		return target == ErrDecode
	case KindDispatch:
		return target == ErrDispatch
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
