package wire

import (
	"encoding/binary"

	"github.com/k64z/steamfleet/protocol"
)

// Serializer is an append-only byte buffer (§4.1 "Serializer"). Every write
// returns the buffer's cumulative length so callers can record sub-message
// boundaries without a second pass.
type Serializer struct {
	buf []byte
}

// NewSerializer returns an empty Serializer, optionally pre-sized.
func NewSerializer(sizeHint int) *Serializer {
	return &Serializer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated buffer.
func (s *Serializer) Bytes() []byte { return s.buf }

// Len reports the cumulative byte count written so far.
func (s *Serializer) Len() int { return len(s.buf) }

func (s *Serializer) WriteUint8(v uint8) int {
	s.buf = append(s.buf, v)
	return len(s.buf)
}

func (s *Serializer) WriteUint16(v uint16) int {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	s.buf = append(s.buf, tmp[:]...)
	return len(s.buf)
}

func (s *Serializer) WriteUint32(v uint32) int {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	s.buf = append(s.buf, tmp[:]...)
	return len(s.buf)
}

func (s *Serializer) WriteUint64(v uint64) int {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	s.buf = append(s.buf, tmp[:]...)
	return len(s.buf)
}

// WriteBytes writes a byte span as-is, with no length prefix.
func (s *Serializer) WriteBytes(v []byte) int {
	s.buf = append(s.buf, v...)
	return len(s.buf)
}

// WriteMessage appends m's protobuf wire-format encoding as-is (no length
// prefix — callers that need one, such as the ProtoBuf header, write it
// themselves per §4.1's explicit framing rule).
func (s *Serializer) WriteMessage(m protocol.Message) (int, error) {
	body, err := m.Marshal()
	if err != nil {
		return s.Len(), err
	}
	return s.WriteBytes(body), nil
}
