package wire

import "errors"

// ErrNotEnoughData is returned by Deserializer reads when the remaining
// span is shorter than the primitive being read (§4.1 "Deserializer").
var ErrNotEnoughData = errors.New("wire: not enough data")

// ErrProtobuf is returned when a protobuf body fails to parse.
var ErrProtobuf = errors.New("wire: malformed protobuf body")

// ErrInvalidMagic is raised by the TCP transport when a frame's magic does
// not match "VT01" (§4.2 "non-recoverable for that connection").
var ErrInvalidMagic = errors.New("wire: invalid frame magic")
