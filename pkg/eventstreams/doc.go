// Package eventstreams provides the store-agnostic event stream data model and
// the contract a backing log store must satisfy.
//
// This package defines the core abstractions for the event streams provider:
//   - Event, StreamQuery, StreamResults, WriteResponse: the records exchanged with callers
//   - Connector, Client, Conn: the small command contract of the backing store
//   - Error and Kind: the error kinds every provider operation reports
//
// The interfaces use Go idioms:
//   - context.Context on every store round-trip
//   - io.Closer for clients and per-operation connections
//   - Explicit error returns, matched with errors.Is against the Err* sentinels
//
// Example usage:
//
//	conn, err := client.Conn(ctx)
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	// Append an event, letting the store assign the id
//	id, err := conn.Append(ctx, "orders", event.Fields())
//	if err != nil {
//		return err
//	}
//
//	// Read the whole stream, oldest first
//	entries, err := conn.Range(ctx, "orders", eventstreams.RangeStart, eventstreams.RangeEnd, 0)
//	if err != nil {
//		return err
//	}
package eventstreams
