package capability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorBuilder(t *testing.T) {
	b := NewDescriptorBuilder().
		ID("eventstreams").
		Name("Test Provider").
		LongDescription("A provider used in tests").
		Version("1.2.3").
		Revision(7).
		WithOperation(OpWriteEvent, ToProvider, "Writes").
		WithOperation(OpQueryStream, ToProvider, "Queries")

	d := b.Build()

	assert.Equal(t, "eventstreams", d.ID)
	assert.Equal(t, "Test Provider", d.Name)
	assert.Equal(t, "A provider used in tests", d.LongDescription)
	assert.Equal(t, "1.2.3", d.Version)
	assert.Equal(t, uint32(7), d.Revision)
	require.Len(t, d.SupportedOperations, 2)
	assert.Equal(t, OperationDescriptor{ID: OpWriteEvent, Direction: ToProvider, Description: "Writes"}, d.SupportedOperations[0])
	assert.Equal(t, OpQueryStream, d.SupportedOperations[1].ID)

	// Building again must not share the operations slice
	d.SupportedOperations[0].Description = "changed"
	assert.Equal(t, "Writes", b.Build().SupportedOperations[0].Description)
}

func TestDescriptorBuilder_Empty(t *testing.T) {
	d := NewDescriptorBuilder().Build()

	assert.NotNil(t, d.SupportedOperations)
	assert.Empty(t, d.SupportedOperations)
}

func TestNullDispatcher(t *testing.T) {
	d := NewNullDispatcher()

	resp, err := d.Dispatch(context.Background(), "actor-1", "OnEvent", []byte("x"))

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrNoDispatcher)
}
