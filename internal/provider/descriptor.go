package provider

import "github.com/rmacdonaldsmith/eventstreams-go/pkg/capability"

const (
	// CapabilityID identifies the event streams contract this provider implements
	CapabilityID = "eventstreams"

	// Revision is incremented for every published build
	Revision uint32 = 2

	capabilityName  = "Default Event Streams Provider (Redis)"
	longDescription = "A capability provider exposing an append-only, range-queryable event streams interface backed by Redis Streams"
)

// Describe returns the provider's capability descriptor.
func Describe() capability.Descriptor {
	return capability.NewDescriptorBuilder().
		ID(CapabilityID).
		Name(capabilityName).
		LongDescription(longDescription).
		Version(Version).
		Revision(Revision).
		WithOperation(capability.OpWriteEvent, capability.ToProvider, "Writes an event to the end of a stream").
		WithOperation(capability.OpQueryStream, capability.ToProvider, "Queries a set of events from a stream").
		Build()
}
