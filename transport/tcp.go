package transport

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/k64z/steamfleet/wire"
)

const tcpMagic = 0x31305456 // "VT01"

// tcpConn implements Connection over raw TCP with VT01 framing (§4.2
// "Packet framing (TCP variant)"), adapted from the teacher's
// steamclient/transport_tcp.go with an explicit Status machine. Read and
// Write do not consult their ctx; closing the connection is what unblocks
// an in-flight Read/Write, per the spec's cancellation contract.
type tcpConn struct {
	conn   net.Conn
	cipher *channelCipher
	mu     sync.Mutex
	addr   string
	status atomic.Int32
}

func dialTCP(ctx context.Context, addr string) (*tcpConn, error) {
	t := &tcpConn{addr: addr}
	t.status.Store(int32(StatusConnecting))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		t.status.Store(int32(StatusError))
		return nil, fmt.Errorf("tcp dial %s: %w", addr, err)
	}
	t.conn = conn
	t.status.Store(int32(StatusConnected))
	return t, nil
}

func (t *tcpConn) Status() Status { return Status(t.status.Load()) }

// Write sends data with VT01 framing; [payload_len u32 LE][magic u32 LE][payload].
func (t *tcpConn) Write(ctx context.Context, data []byte) error {
	payload := data
	if t.cipher != nil {
		var err error
		payload, err = t.cipher.encrypt(data)
		if err != nil {
			return fmt.Errorf("encrypt: %w", err)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	hdr := make([]byte, 8)
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[4:8], tcpMagic)

	if _, err := t.conn.Write(hdr); err != nil {
		t.status.Store(int32(StatusError))
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := t.conn.Write(payload); err != nil {
		t.status.Store(int32(StatusError))
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// Read reads one VT01-framed message, decrypting it if a channel cipher is
// established. A closed connection unblocks the pending read with an error.
func (t *tcpConn) Read(ctx context.Context) ([]byte, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(t.conn, hdr[:]); err != nil {
		if err == io.EOF {
			t.status.Store(int32(StatusGotEOF))
			return nil, nil
		}
		t.status.Store(int32(StatusError))
		return nil, fmt.Errorf("read header: %w", err)
	}

	payloadLen := binary.LittleEndian.Uint32(hdr[0:4])
	magic := binary.LittleEndian.Uint32(hdr[4:8])
	if magic != tcpMagic {
		t.status.Store(int32(StatusError))
		return nil, wire.ErrInvalidMagic
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(t.conn, payload); err != nil {
		t.status.Store(int32(StatusError))
		return nil, fmt.Errorf("read payload: %w", err)
	}

	if t.cipher != nil {
		decrypted, err := t.cipher.decrypt(payload)
		if err != nil {
			return nil, fmt.Errorf("decrypt: %w", err)
		}
		return decrypted, nil
	}
	return payload, nil
}

func (t *tcpConn) Close() error {
	t.status.Store(int32(StatusDisconnected))
	return t.conn.Close()
}

func (t *tcpConn) RemoteAddr() string { return t.addr }

// performEncryptionHandshake executes the TCP channel encryption handshake
// (§9 "obfuscation mask and fixed header constants are reproduced verbatim").
// Handshake messages use the legacy 20-byte header (EMsg + two 64-bit job
// IDs), not the Extended/ProtoBuf shapes the rest of the session uses.
func (t *tcpConn) performEncryptionHandshake(ctx context.Context) error {
	const msgHdrLen = 20

	data, err := t.Read(ctx)
	if err != nil {
		return fmt.Errorf("read encrypt request: %w", err)
	}
	if len(data) < msgHdrLen+8 {
		return fmt.Errorf("encrypt request too short: %d bytes", len(data))
	}

	emsg := wire.EMsg(binary.LittleEndian.Uint32(data[0:4]))
	if emsg != wire.EMsgChannelEncryptRequest {
		return fmt.Errorf("expected ChannelEncryptRequest, got %s", emsg)
	}

	body := data[msgHdrLen:]
	var challenge []byte
	if len(body) >= 24 {
		challenge = body[8:24]
	}

	sessionKey := make([]byte, 32)
	if _, err := rand.Read(sessionKey); err != nil {
		return fmt.Errorf("generate session key: %w", err)
	}

	encryptedBlob, err := rsaEncryptSessionKey(sessionKey, challenge)
	if err != nil {
		return fmt.Errorf("rsa encrypt: %w", err)
	}
	keyCRC := crc32.ChecksumIEEE(encryptedBlob)

	buf := make([]byte, 0, msgHdrLen+8+len(encryptedBlob)+8)
	resp := binary.LittleEndian.AppendUint32(buf, uint32(wire.EMsgChannelEncryptResponse))
	resp = binary.LittleEndian.AppendUint64(resp, 0xFFFFFFFFFFFFFFFF)
	resp = binary.LittleEndian.AppendUint64(resp, 0xFFFFFFFFFFFFFFFF)
	resp = binary.LittleEndian.AppendUint32(resp, 1)
	resp = binary.LittleEndian.AppendUint32(resp, 128)
	resp = append(resp, encryptedBlob...)
	resp = binary.LittleEndian.AppendUint32(resp, keyCRC)
	resp = binary.LittleEndian.AppendUint32(resp, 0)

	if err := t.Write(ctx, resp); err != nil {
		return fmt.Errorf("send encrypt response: %w", err)
	}

	resultData, err := t.Read(ctx)
	if err != nil {
		return fmt.Errorf("read encrypt result: %w", err)
	}
	if len(resultData) < msgHdrLen+4 {
		return fmt.Errorf("encrypt result too short: %d bytes", len(resultData))
	}

	resultEmsg := wire.EMsg(binary.LittleEndian.Uint32(resultData[0:4]))
	if resultEmsg != wire.EMsgChannelEncryptResult {
		return fmt.Errorf("expected ChannelEncryptResult, got %s", resultEmsg)
	}

	eresult := binary.LittleEndian.Uint32(resultData[msgHdrLen : msgHdrLen+4])
	if eresult != 1 {
		return fmt.Errorf("encryption handshake failed: eresult=%d", eresult)
	}

	t.cipher, err = newChannelCipher(sessionKey, challenge != nil)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}
	return nil
}
