package wire

import (
	"encoding/binary"

	"github.com/k64z/steamfleet/protocol"
)

// Deserializer is a byte-span cursor (§4.1 "Deserializer"). Reads never
// mutate the underlying span; they only advance the cursor.
type Deserializer struct {
	data []byte
	pos  int
}

func NewDeserializer(data []byte) *Deserializer {
	return &Deserializer{data: data}
}

// Remaining reports how many bytes are left unread.
func (d *Deserializer) Remaining() int { return len(d.data) - d.pos }

// Rest returns the unread tail without advancing the cursor.
func (d *Deserializer) Rest() []byte { return d.data[d.pos:] }

func (d *Deserializer) require(n int) error {
	if d.Remaining() < n {
		return ErrNotEnoughData
	}
	return nil
}

func (d *Deserializer) ReadUint8() (uint8, error) {
	if err := d.require(1); err != nil {
		return 0, err
	}
	v := d.data[d.pos]
	d.pos++
	return v, nil
}

func (d *Deserializer) ReadUint16() (uint16, error) {
	if err := d.require(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.data[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *Deserializer) ReadUint32() (uint32, error) {
	if err := d.require(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *Deserializer) ReadUint64() (uint64, error) {
	if err := d.require(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(d.data[d.pos:])
	d.pos += 8
	return v, nil
}

// ReadBytes returns the next n bytes as-is.
func (d *Deserializer) ReadBytes(n int) ([]byte, error) {
	if err := d.require(n); err != nil {
		return nil, err
	}
	v := d.data[d.pos : d.pos+n]
	d.pos += n
	return v, nil
}

// ReadMessage consumes exactly n bytes and unmarshals them as m's protobuf
// wire-format encoding.
func (d *Deserializer) ReadMessage(n int, m protocol.Message) error {
	body, err := d.ReadBytes(n)
	if err != nil {
		return err
	}
	if err := m.Unmarshal(body); err != nil {
		return ErrProtobuf
	}
	return nil
}

// PeekMessageType reads the first 32-bit word of a packet without advancing
// any caller-visible cursor, strips the protobuf flag, and reports the bare
// EMsg plus whether the flag was set (§4.1 "Peek message type").
func PeekMessageType(data []byte) (EMsg, bool, error) {
	if len(data) < 4 {
		return 0, false, ErrNotEnoughData
	}
	raw := binary.LittleEndian.Uint32(data)
	isProto := raw&ProtoMask != 0
	return EMsg(raw &^ ProtoMask), isProto, nil
}
