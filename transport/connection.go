package transport

import "context"

// Connection is a stream transport to a Steam CM server (§4.2 "Connection
// (C2)"). readPacket/writePacket in the spec map to Read/Write here;
// closing the connection forces any suspended Read/Write to return with an
// error, which is how the scheduler breaks a stuck I/O task on shutdown.
type Connection interface {
	// Write appends framing and writes data atomically.
	Write(ctx context.Context, data []byte) error
	// Read suspends until a complete framed packet is available; returns
	// an empty slice on EOF.
	Read(ctx context.Context) ([]byte, error)
	Close() error
	RemoteAddr() string
	Status() Status
}

// EndpointProvider is the external connection-manager collaborator (§6.2
// "Endpoint provider"). Connect resolves candidate CM server addresses,
// dials one and returns an already-connected, encryption-envelope-ready
// stream. StoreEndpoint persists the last known-good endpoint once
// the connection reaches StatusConnected.
type EndpointProvider interface {
	Connect(ctx context.Context) (Connection, error)
	StoreEndpoint(addr string)
}
