package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOperation(t *testing.T) {
	tests := []struct {
		name     string
		expected Operation
	}{
		{OpBindActor, BindActor},
		{OpRemoveActor, RemoveActor},
		{OpGetCapabilityDescriptor, GetCapabilityDescriptor},
		{OpWriteEvent, WriteEvent},
		{OpQueryStream, QueryStream},
		{"DeleteStream", Unknown},
		{"writeevent", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := ParseOperation(tt.name)
			assert.Equal(t, tt.expected, op)
			if op != Unknown {
				assert.Equal(t, tt.name, op.String())
			}
		})
	}
}

func TestOperation_Permitted(t *testing.T) {
	t.Run("privileged_operations_require_system", func(t *testing.T) {
		for _, op := range []Operation{BindActor, RemoveActor, GetCapabilityDescriptor} {
			assert.True(t, op.Privileged(), op.String())
			assert.True(t, op.Permitted(SystemActor), op.String())
			assert.False(t, op.Permitted("actor-1"), op.String())
		}
	})

	t.Run("stream_operations_open_to_everyone", func(t *testing.T) {
		for _, op := range []Operation{WriteEvent, QueryStream} {
			assert.False(t, op.Privileged(), op.String())
			assert.True(t, op.Permitted(SystemActor), op.String())
			assert.True(t, op.Permitted("actor-1"), op.String())
		}
	})

	t.Run("unknown_never_permitted", func(t *testing.T) {
		assert.False(t, Unknown.Permitted(SystemActor))
		assert.False(t, Unknown.Permitted("actor-1"))
	})
}

func TestConfiguration_Value(t *testing.T) {
	cfg := Configuration{
		Module: "actor-1",
		Values: map[string]string{OptionURL: "redis://cache:6379/2", "EMPTY": ""},
	}

	assert.Equal(t, "redis://cache:6379/2", cfg.Value(OptionURL, "fallback"))
	assert.Equal(t, "fallback", cfg.Value("EMPTY", "fallback"))
	assert.Equal(t, "fallback", cfg.Value("MISSING", "fallback"))
	assert.Equal(t, "fallback", Configuration{}.Value(OptionURL, "fallback"))
}
