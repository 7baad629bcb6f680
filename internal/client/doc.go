// Package client implements the sending side of the linetap transport.
//
// A Shipper exposes a non-blocking Enqueue to any number of callers and
// drains the queue with a single send loop. The ConnManager owns the one
// outbound connection and its recovery: connect, detect failure, wait the
// retry delay, try again. A record whose write fails is dropped, not
// re-enqueued; delivery is at most once per attempt by design.
package client
