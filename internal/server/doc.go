// Package server implements the receiving side of the linetap transport.
//
// A Server accepts inbound TCP connections from producers, reassembles each
// connection's byte stream into text records (one reader goroutine and one
// framing.Decoder per connection), and hands the records to a shared
// Aggregator. The aggregator debounces delivery: the first record after a
// flush arms a one-shot timer, and when it fires the whole accumulated
// batch goes to the configured Sink as one ordered unit.
//
// Fault containment follows a simple rule: only Start and Stop return
// errors to the caller. A fault on an accepted connection closes and
// deregisters that connection and nothing else; the listener and the other
// connections keep running.
package server
