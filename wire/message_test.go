package wire

import (
	"encoding/binary"
	"testing"

	"github.com/k64z/steamfleet/protocol"
)

func TestEncodeDecodeProtoBufHeader(t *testing.T) {
	original := &Message{
		Type: EMsgClientHeartBeat,
		Kind: HeaderProtoBuf,
		Proto: &ProtoBufHeader{Proto: &protocol.CMsgProtoBufHeader{
			Steamid:         protocol.Uint64(76561198012345678),
			ClientSessionid: protocol.Int32(42),
		}},
		Body: []byte{},
	}

	encoded, err := original.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	rawType := binary.LittleEndian.Uint32(encoded[0:4])
	if rawType&ProtoMask == 0 {
		t.Error("ProtoMask not set in encoded message")
	}
	if EMsg(rawType&^ProtoMask) != EMsgClientHeartBeat {
		t.Errorf("type mismatch: got %d, want %d", rawType&^ProtoMask, EMsgClientHeartBeat)
	}

	decoded, err := Decode(encoded, HeaderProtoBuf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != original.Type {
		t.Errorf("type: got %s, want %s", decoded.Type, original.Type)
	}
	if decoded.Proto.Proto.GetSteamid() != 76561198012345678 {
		t.Errorf("steamid: got %d, want 76561198012345678", decoded.Proto.Proto.GetSteamid())
	}
	if decoded.Proto.Proto.GetClientSessionid() != 42 {
		t.Errorf("session id: got %d, want 42", decoded.Proto.Proto.GetClientSessionid())
	}
}

func TestEncodeDecodeSimpleHeader(t *testing.T) {
	original := &Message{
		Type:   EMsgClientLoggedOff,
		Kind:   HeaderSimple,
		Simple: &SimpleHeader{TargetJobID: 0xFFFFFFFFFFFFFFFF, SourceJobID: 0xFFFFFFFFFFFFFFFF},
		Body:   []byte{0x01, 0x00, 0x00, 0x00},
	}

	encoded, err := original.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(encoded) != 20+len(original.Body) {
		t.Fatalf("simple header framing: got %d bytes, want %d", len(encoded), 20+len(original.Body))
	}

	rawType := binary.LittleEndian.Uint32(encoded[0:4])
	if rawType&ProtoMask != 0 {
		t.Error("ProtoMask unexpectedly set for simple-header message")
	}

	decoded, err := Decode(encoded, HeaderSimple)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Simple.TargetJobID != original.Simple.TargetJobID {
		t.Errorf("targetJobID: got %x, want %x", decoded.Simple.TargetJobID, original.Simple.TargetJobID)
	}
	if string(decoded.Body) != string(original.Body) {
		t.Errorf("body: got %v, want %v", decoded.Body, original.Body)
	}
}

func TestEncodeDecodeExtendedHeader(t *testing.T) {
	original := &Message{
		Type: EMsgClientLogon,
		Kind: HeaderExtended,
		Extended: &ExtendedHeader{
			TargetJobID: 0xFFFFFFFFFFFFFFFF,
			SourceJobID: 0xFFFFFFFFFFFFFFFF,
			SteamID:     76561198012345678,
			SessionID:   7,
		},
		Body: []byte{0xAA, 0xBB},
	}

	encoded, err := original.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(encoded) != 36+len(original.Body) {
		t.Fatalf("extended header framing: got %d bytes, want %d", len(encoded), 36+len(original.Body))
	}

	decoded, err := Decode(encoded, HeaderExtended)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Extended.SteamID != original.Extended.SteamID {
		t.Errorf("steamID: got %d, want %d", decoded.Extended.SteamID, original.Extended.SteamID)
	}
	if decoded.Extended.SessionID != original.Extended.SessionID {
		t.Errorf("sessionID: got %d, want %d", decoded.Extended.SessionID, original.Extended.SessionID)
	}
}

func TestPeekMessageType(t *testing.T) {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, uint32(EMsgClientLogOnResponse)|ProtoMask)

	typ, isProto, err := PeekMessageType(raw)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if !isProto {
		t.Error("expected proto flag set")
	}
	if typ != EMsgClientLogOnResponse {
		t.Errorf("type: got %s, want %s", typ, EMsgClientLogOnResponse)
	}
}

func TestPeekMessageTypeNotEnoughData(t *testing.T) {
	if _, _, err := PeekMessageType([]byte{0x01, 0x02}); err != ErrNotEnoughData {
		t.Fatalf("expected ErrNotEnoughData, got %v", err)
	}
}

func TestDeserializerNotEnoughData(t *testing.T) {
	d := NewDeserializer([]byte{0x01, 0x02})
	if _, err := d.ReadUint32(); err != ErrNotEnoughData {
		t.Fatalf("expected ErrNotEnoughData, got %v", err)
	}
}
