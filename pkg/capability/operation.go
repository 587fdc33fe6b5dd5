package capability

// SystemActor is the caller identity the host uses for privileged operations.
const SystemActor = "system"

// Operation names as they appear on the wire.
const (
	OpBindActor               = "BindActor"
	OpRemoveActor             = "RemoveActor"
	OpGetCapabilityDescriptor = "GetCapabilityDescriptor"
	OpWriteEvent              = "WriteEvent"
	OpQueryStream             = "QueryStream"
)

// Operation is one of the operations a provider answers.
type Operation int

const (
	// Unknown is any operation name outside the supported set
	Unknown Operation = iota
	BindActor
	RemoveActor
	GetCapabilityDescriptor
	WriteEvent
	QueryStream
)

// ParseOperation maps a wire name to an Operation. Unrecognized names map to Unknown.
func ParseOperation(name string) Operation {
	switch name {
	case OpBindActor:
		return BindActor
	case OpRemoveActor:
		return RemoveActor
	case OpGetCapabilityDescriptor:
		return GetCapabilityDescriptor
	case OpWriteEvent:
		return WriteEvent
	case OpQueryStream:
		return QueryStream
	default:
		return Unknown
	}
}

// String returns the wire name of the operation.
func (o Operation) String() string {
	switch o {
	case BindActor:
		return OpBindActor
	case RemoveActor:
		return OpRemoveActor
	case GetCapabilityDescriptor:
		return OpGetCapabilityDescriptor
	case WriteEvent:
		return OpWriteEvent
	case QueryStream:
		return OpQueryStream
	default:
		return "Unknown"
	}
}

// Privileged reports whether only SystemActor may invoke the operation.
func (o Operation) Privileged() bool {
	switch o {
	case BindActor, RemoveActor, GetCapabilityDescriptor:
		return true
	default:
		return false
	}
}

// Permitted reports whether actor may invoke the operation.
func (o Operation) Permitted(actor string) bool {
	if o == Unknown {
		return false
	}
	if o.Privileged() {
		return actor == SystemActor
	}
	return true
}
