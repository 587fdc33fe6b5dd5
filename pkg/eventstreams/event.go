package eventstreams

import (
	"sort"
	"strconv"
)

// Event is a single entry in a named stream.
type Event struct {
	// EventID is assigned by the store. It is empty when writing and populated when reading.
	EventID string `msgpack:"event_id" json:"event_id"`

	// Stream is the name of the stream the event belongs to
	Stream string `msgpack:"stream" json:"stream"`

	// Values holds the event's fields. Keys are unique, order is not significant.
	Values map[string]string `msgpack:"values" json:"values"`
}

// NewEvent creates an Event for writing. The values are copied.
func NewEvent(stream string, values map[string]string) *Event {
	valuesCopy := make(map[string]string, len(values))
	for k, v := range values {
		valuesCopy[k] = v
	}

	return &Event{
		Stream: stream,
		Values: valuesCopy,
	}
}

// Field is one flattened (name, value) pair of an event.
type Field struct {
	Name  string
	Value string
}

// Fields flattens the event's values into a slice sorted by field name.
// The id is carried out-of-band and never appears here.
func (e *Event) Fields() []Field {
	fields := make([]Field, 0, len(e.Values))
	for k, v := range e.Values {
		fields = append(fields, Field{Name: k, Value: v})
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Name < fields[j].Name
	})
	return fields
}

// TimeRange bounds a query by event timestamp, in milliseconds. Both ends are inclusive.
type TimeRange struct {
	MinTime uint64 `msgpack:"min_time" json:"min_time"`
	MaxTime uint64 `msgpack:"max_time" json:"max_time"`
}

// StreamQuery selects events from a single stream.
type StreamQuery struct {
	// StreamID is the name of the stream to read
	StreamID string `msgpack:"stream_id" json:"stream_id"`

	// Range restricts the query to a time interval. Nil reads the whole stream.
	Range *TimeRange `msgpack:"range" json:"range,omitempty"`

	// Count caps the number of results. Zero means unbounded.
	Count uint64 `msgpack:"count" json:"count"`
}

// StreamResults holds the events returned by a query in ascending id order.
type StreamResults struct {
	Events []Event `msgpack:"events" json:"events"`
}

// WriteResponse carries the id the store assigned to an appended event.
type WriteResponse struct {
	EventID string `msgpack:"event_id" json:"event_id"`
}

// Store range bounds for reading a whole stream.
const (
	RangeStart = "-"
	RangeEnd   = "+"

	// AutoID asks the store to generate the event id.
	AutoID = "*"

	maxSequence = "18446744073709551615"
)

// Bounds returns the start and end ids covering the time range, inclusive of
// every sequence number within the boundary milliseconds.
func (r TimeRange) Bounds() (start, end string) {
	start = strconv.FormatUint(r.MinTime, 10) + "-0"
	end = strconv.FormatUint(r.MaxTime, 10) + "-" + maxSequence
	return start, end
}
