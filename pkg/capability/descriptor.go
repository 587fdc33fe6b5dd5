package capability

// OperationDirection says which side of the provider boundary receives an operation.
type OperationDirection string

const (
	// ToActor operations are sent by the provider to actors
	ToActor OperationDirection = "to_actor"
	// ToProvider operations are sent by actors to the provider
	ToProvider OperationDirection = "to_provider"
)

// OperationDescriptor describes one supported operation.
type OperationDescriptor struct {
	ID          string             `msgpack:"id" json:"id"`
	Direction   OperationDirection `msgpack:"direction" json:"direction"`
	Description string             `msgpack:"description" json:"description"`
}

// Descriptor is the static self-description a provider reports on request.
type Descriptor struct {
	ID                  string                `msgpack:"id" json:"id"`
	Name                string                `msgpack:"name" json:"name"`
	LongDescription     string                `msgpack:"long_description" json:"long_description"`
	Version             string                `msgpack:"version" json:"version"`
	Revision            uint32                `msgpack:"revision" json:"revision"`
	SupportedOperations []OperationDescriptor `msgpack:"supported_operations" json:"supported_operations"`
}

// DescriptorBuilder assembles a Descriptor.
type DescriptorBuilder struct {
	d Descriptor
}

// NewDescriptorBuilder creates an empty builder.
func NewDescriptorBuilder() *DescriptorBuilder {
	return &DescriptorBuilder{
		d: Descriptor{SupportedOperations: []OperationDescriptor{}},
	}
}

// ID sets the capability identifier.
func (b *DescriptorBuilder) ID(id string) *DescriptorBuilder {
	b.d.ID = id
	return b
}

// Name sets the human readable name.
func (b *DescriptorBuilder) Name(name string) *DescriptorBuilder {
	b.d.Name = name
	return b
}

// LongDescription sets the long description.
func (b *DescriptorBuilder) LongDescription(desc string) *DescriptorBuilder {
	b.d.LongDescription = desc
	return b
}

// Version sets the version string.
func (b *DescriptorBuilder) Version(version string) *DescriptorBuilder {
	b.d.Version = version
	return b
}

// Revision sets the revision number.
func (b *DescriptorBuilder) Revision(revision uint32) *DescriptorBuilder {
	b.d.Revision = revision
	return b
}

// WithOperation adds a supported operation.
func (b *DescriptorBuilder) WithOperation(id string, direction OperationDirection, description string) *DescriptorBuilder {
	b.d.SupportedOperations = append(b.d.SupportedOperations, OperationDescriptor{
		ID:          id,
		Direction:   direction,
		Description: description,
	})
	return b
}

// Build returns the assembled Descriptor. The builder may be reused.
func (b *DescriptorBuilder) Build() Descriptor {
	d := b.d
	d.SupportedOperations = make([]OperationDescriptor, len(b.d.SupportedOperations))
	copy(d.SupportedOperations, b.d.SupportedOperations)
	return d
}
