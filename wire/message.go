package wire

import "fmt"

// HeaderKind distinguishes the three header shapes a Message may carry.
type HeaderKind int

const (
	HeaderSimple HeaderKind = iota
	HeaderExtended
	HeaderProtoBuf
)

// Message is one fully framed Steam CM packet: the message type word, the
// header variant it carries, and the raw body bytes. C1 only ever produces
// and consumes Messages; outer length-prefix/magic framing is C2's job.
type Message struct {
	Type   EMsg
	Kind   HeaderKind
	Simple   *SimpleHeader
	Extended *ExtendedHeader
	Proto    *ProtoBufHeader
	Body     []byte
}

// Encode serializes m to its wire-format bytes (§4.1 header rules).
func (m *Message) Encode() ([]byte, error) {
	s := NewSerializer(len(m.Body) + 64)

	switch m.Kind {
	case HeaderSimple:
		s.WriteUint32(uint32(m.Type))
		if m.Simple == nil {
			m.Simple = &SimpleHeader{}
		}
		m.Simple.serialize(s)
	case HeaderExtended:
		s.WriteUint32(uint32(m.Type))
		if m.Extended == nil {
			m.Extended = &ExtendedHeader{}
		}
		m.Extended.serialize(s)
	case HeaderProtoBuf:
		s.WriteUint32(uint32(m.Type) | ProtoMask)
		if m.Proto == nil {
			m.Proto = &ProtoBufHeader{Proto: nil}
		}
		if err := m.Proto.serialize(s); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("wire: unknown header kind %d", m.Kind)
	}

	s.WriteBytes(m.Body)
	return s.Bytes(), nil
}

// Decode parses data into a Message. kind must be known ahead of time by
// the caller (ordinarily derived from the EMsg's registered shape), mirroring
// Steam's own convention that header shape is a property of message type,
// not something self-describing in the stream beyond the protobuf flag.
func Decode(data []byte, kind HeaderKind) (*Message, error) {
	d := NewDeserializer(data)
	rawType, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}

	m := &Message{Kind: kind}
	switch kind {
	case HeaderSimple:
		m.Type = EMsg(rawType)
		m.Simple = &SimpleHeader{}
		if err := m.Simple.deserialize(d); err != nil {
			return nil, err
		}
	case HeaderExtended:
		m.Type = EMsg(rawType)
		m.Extended = &ExtendedHeader{}
		if err := m.Extended.deserialize(d); err != nil {
			return nil, err
		}
	case HeaderProtoBuf:
		m.Type = EMsg(rawType &^ ProtoMask)
		m.Proto = &ProtoBufHeader{}
		if err := m.Proto.deserialize(d); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("wire: unknown header kind %d", kind)
	}

	m.Body = append([]byte(nil), d.Rest()...)
	return m, nil
}

// DecodeAuto infers the header kind from the protobuf flag on the leading
// type word: set means ProtoBuf, unset means Extended (the non-proto shape
// every post-handshake CM message other than ChannelEncrypt* and
// ClientLoggedOff uses). Callers needing the bare Simple shape (legacy
// ClientLoggedOff) call Decode directly with HeaderSimple.
func DecodeAuto(data []byte) (*Message, error) {
	typ, isProto, err := PeekMessageType(data)
	if err != nil {
		return nil, err
	}
	_ = typ
	if isProto {
		return Decode(data, HeaderProtoBuf)
	}
	return Decode(data, HeaderExtended)
}
