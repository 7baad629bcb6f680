// Package domain contains the core value objects and sentinel errors for
// linetap.
//
// This is the innermost layer: it has no dependencies on sockets, timers,
// logging or any other infrastructure concern, and every type in it can be
// tested without mocks.
//
// # Entities
//
//   - [Batch]: an ordered accumulation of record texts awaiting delivery
//   - sentinel errors returned by the public server and shipper surfaces
package domain
