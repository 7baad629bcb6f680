// Package linetap is the embedding surface for the line transport. It
// re-exports the receiving server and the shipping client so a host
// program can run either side in-process without importing internal
// packages.
//
// Receiving side:
//
//	srv, err := linetap.NewServer(linetap.ServerConfig{
//		Port: 7007,
//		Sink: func(records []string) { ... },
//	})
//	if err != nil { ... }
//	if err := srv.Start(ctx); err != nil { ... }
//	defer srv.Stop()
//
// Sending side:
//
//	sh, err := linetap.NewShipper(linetap.ShipperConfig{Host: "127.0.0.1", Port: 7007})
//	if err != nil { ... }
//	if err := sh.Start(ctx); err != nil { ... }
//	sh.Enqueue("hello")
//	defer sh.Close()
package linetap

import (
	"github.com/linetap/linetap/internal/client"
	"github.com/linetap/linetap/internal/server"
)

// DefaultPort is the port producers and the viewer agree on out of the box.
const DefaultPort = 7007

// Receiving side.
type (
	// Server accepts TCP producers and delivers debounced batches to a Sink.
	Server = server.Server

	// ServerConfig configures a Server. Sink is required.
	ServerConfig = server.Config

	// Sink receives every flushed batch of records, one call per batch.
	Sink = server.Sink
)

// Sending side.
type (
	// Shipper queues records and forwards them over a self-healing connection.
	Shipper = client.Shipper

	// ShipperConfig configures a Shipper. Host and Port are required.
	ShipperConfig = client.Config

	// Entry is a structured record formatted into a single line on enqueue.
	Entry = client.Entry

	// Level classifies an Entry.
	Level = client.Level
)

// Entry levels.
const (
	LevelDebug = client.LevelDebug
	LevelInfo  = client.LevelInfo
	LevelWarn  = client.LevelWarn
	LevelError = client.LevelError
)

// NewServer builds a Server from cfg. The server is inert until Start.
func NewServer(cfg ServerConfig) (*Server, error) {
	return server.New(cfg)
}

// NewShipper builds a Shipper from cfg. No connection is attempted until
// Start; the first dial happens when the first record is dequeued.
func NewShipper(cfg ShipperConfig) (*Shipper, error) {
	return client.New(cfg)
}
