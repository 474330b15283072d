package transport

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
)

func TestTCPFramingWriteRead(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	tc := &tcpConn{conn: client, addr: "test"}
	tc.status.Store(int32(StatusConnected))

	payload := []byte("hello steam")

	go func() {
		if err := tc.Write(context.Background(), payload); err != nil {
			t.Errorf("write: %v", err)
		}
	}()

	var hdr [8]byte
	if _, err := server.Read(hdr[:]); err != nil {
		t.Fatalf("read header: %v", err)
	}

	gotLen := binary.LittleEndian.Uint32(hdr[0:4])
	gotMagic := binary.LittleEndian.Uint32(hdr[4:8])
	if gotLen != uint32(len(payload)) {
		t.Errorf("payload length: got %d, want %d", gotLen, len(payload))
	}
	if gotMagic != tcpMagic {
		t.Errorf("magic: got 0x%08X, want 0x%08X", gotMagic, tcpMagic)
	}

	buf := make([]byte, gotLen)
	if _, err := server.Read(buf); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	if string(buf) != "hello steam" {
		t.Errorf("payload: got %q, want %q", string(buf), "hello steam")
	}
}

func TestTCPFramingReadVerifiesMagic(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	tc := &tcpConn{conn: client, addr: "test"}
	tc.status.Store(int32(StatusConnected))

	go func() {
		hdr := make([]byte, 8)
		binary.LittleEndian.PutUint32(hdr[0:4], 4)
		binary.LittleEndian.PutUint32(hdr[4:8], 0xDEADBEEF)
		server.Write(hdr)
		server.Write([]byte{1, 2, 3, 4})
	}()

	if _, err := tc.Read(context.Background()); err == nil {
		t.Fatal("expected invalid magic error")
	} else if tc.Status() != StatusError {
		t.Errorf("status after bad magic: got %s, want %s", tc.Status(), StatusError)
	}
}

func TestTCPReadReportsEOFAsEmptySlice(t *testing.T) {
	server, client := net.Pipe()
	tc := &tcpConn{conn: client, addr: "test"}
	tc.status.Store(int32(StatusConnected))

	server.Close()

	data, err := tc.Read(context.Background())
	if err != nil {
		t.Fatalf("expected nil error on EOF, got %v", err)
	}
	if data != nil {
		t.Errorf("expected empty payload on EOF, got %v", data)
	}
	if tc.Status() != StatusGotEOF {
		t.Errorf("status after EOF: got %s, want %s", tc.Status(), StatusGotEOF)
	}
}

func TestOrderCandidatesPutsLastGoodFirst(t *testing.T) {
	servers := []cmServer{
		{Addr: "a:27017", Type: "netfilter"},
		{Addr: "b:27017", Type: "netfilter"},
		{Addr: "c:27017", Type: "netfilter"},
	}
	ordered := orderCandidates(servers, "c:27017")
	if ordered[0].Addr != "c:27017" {
		t.Fatalf("expected last-good endpoint first, got %v", ordered)
	}
}
