// Package capability defines the vocabulary shared between a provider and the
// host that drives it.
//
// This package defines:
//   - Operation: the closed set of operations a provider answers
//   - Configuration: the per-actor settings the host supplies at bind time
//   - Descriptor: the static self-description a provider reports on request
//   - Dispatcher: the channel back to the host
//
// Privileged operations (bind, remove, describe) are only accepted from SystemActor.
package capability
