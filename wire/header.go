package wire

import "github.com/k64z/steamfleet/protocol"

// Simple, Extended and ProtoBuf are the three header shapes a Message may
// carry (§3 "DATA MODEL"). Exactly one is populated on any given Message.
const (
	simpleHeaderSize   = 20 - 4 // everything after the leading type word
	extendedHeaderSize = 36 - 4 // everything after the leading type word
	extendedHeaderByte = 0x24   // headerSize field value, 36 decimal
	extendedVersion    = 2
	extendedCanary     = 0xEF
)

// SimpleHeader carries just the job correlation pair (§4.1 "Simple").
type SimpleHeader struct {
	TargetJobID uint64
	SourceJobID uint64
}

func (h *SimpleHeader) serialize(s *Serializer) {
	s.WriteUint64(h.TargetJobID)
	s.WriteUint64(h.SourceJobID)
}

func (h *SimpleHeader) deserialize(d *Deserializer) error {
	var err error
	if h.TargetJobID, err = d.ReadUint64(); err != nil {
		return err
	}
	if h.SourceJobID, err = d.ReadUint64(); err != nil {
		return err
	}
	return nil
}

// ExtendedHeader adds session/steamID framing atop the Simple fields
// (§4.1 "Extended"). HeaderSize, Version and Canary are fixed wire
// constants reproduced verbatim per §9's note on undocumented magic values.
type ExtendedHeader struct {
	TargetJobID uint64
	SourceJobID uint64
	SteamID     uint64
	SessionID   int32
}

func (h *ExtendedHeader) serialize(s *Serializer) {
	s.WriteUint8(extendedHeaderByte)
	s.WriteUint16(extendedVersion)
	s.WriteUint64(h.TargetJobID)
	s.WriteUint64(h.SourceJobID)
	s.WriteUint8(extendedCanary)
	s.WriteUint64(h.SteamID)
	s.WriteUint32(uint32(h.SessionID))
}

func (h *ExtendedHeader) deserialize(d *Deserializer) error {
	if _, err := d.ReadUint8(); err != nil { // headerSize, ignored
		return err
	}
	if _, err := d.ReadUint16(); err != nil { // version, ignored
		return err
	}
	var err error
	if h.TargetJobID, err = d.ReadUint64(); err != nil {
		return err
	}
	if h.SourceJobID, err = d.ReadUint64(); err != nil {
		return err
	}
	if _, err := d.ReadUint8(); err != nil { // canary, ignored
		return err
	}
	if h.SteamID, err = d.ReadUint64(); err != nil {
		return err
	}
	sid, err := d.ReadUint32()
	if err != nil {
		return err
	}
	h.SessionID = int32(sid)
	return nil
}

// ProtoBufHeader wraps the protocol.CMsgProtoBufHeader, preceded on the
// wire by its own 32-bit little-endian length (§4.1 "ProtoBuf").
type ProtoBufHeader struct {
	Proto *protocol.CMsgProtoBufHeader
}

func (h *ProtoBufHeader) serialize(s *Serializer) error {
	body, err := h.Proto.Marshal()
	if err != nil {
		return err
	}
	s.WriteUint32(uint32(len(body)))
	s.WriteBytes(body)
	return nil
}

func (h *ProtoBufHeader) deserialize(d *Deserializer) error {
	protoLen, err := d.ReadUint32()
	if err != nil {
		return err
	}
	h.Proto = &protocol.CMsgProtoBufHeader{}
	return d.ReadMessage(int(protoLen), h.Proto)
}
