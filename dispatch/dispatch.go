// Package dispatch implements the packet dispatch table described in §4.8
// ("Dispatch (C8)"), grounded directly on steamclient.Client.handlePacket's
// switch/case and its CMsgMulti recursive expansion (decodeMulti). The
// switch/case is generalized into a type -> Handler map populated as
// modules register interest in a message type, and the destruct-monitor
// guarantee for CMsgMulti/CMsgClientLogonResponse — absent from the
// teacher, which has no ordering requirement beyond "process it inline" —
// is added on top via Monitored[T].
//
// §4.8 describes the handler map as process-wide; here it is one Dispatcher
// per Client, since each Client owns its own Messageboard and there is
// nothing else in the process for two Clients' dispatch tables to share
// (modregistry is the actual process-wide, insert-only registry).
package dispatch

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/k64z/steamfleet/protocol"
	"github.com/k64z/steamfleet/wire"
)

// Monitored wraps a shared message with a destruct monitor: every
// subscriber that receives it must call Release exactly once when done
// processing it. The Dispatcher blocks on all Releases before moving on to
// the next packet (§4.8 "synchronously wait until all subscribers have
// released it before the dispatcher reads the next packet").
type Monitored[T any] struct {
	Value T
	done  *sync.WaitGroup
}

// Release signals this subscriber is finished with Value.
func (m Monitored[T]) Release() { m.done.Done() }

type handlerFunc func(msg *wire.Message) error

// Dispatcher routes decoded packets to per-type handlers and expands
// CMsgMulti bodies.
type Dispatcher struct {
	logger     *slog.Logger
	mu         sync.RWMutex
	handlers   map[wire.EMsg]handlerFunc
	headerHook func(emsg wire.EMsg, msg *wire.Message)
}

// New creates an empty Dispatcher.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger, handlers: make(map[wire.EMsg]handlerFunc)}
}

func (d *Dispatcher) register(emsg wire.EMsg, fn handlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[emsg] = fn
}

// SetHeaderHook installs a callback invoked with the decoded header of every
// message Handle processes, before that message's own handler runs (grounded
// on steamclient.decodePacket/decodeProtoPacket always parsing steamid/
// client_sessionid off the header regardless of message type: the Client
// uses this to keep clientstate.SteamID/SessionID current from whichever
// packet happens to carry them first, rather than special-casing logon).
func (d *Dispatcher) SetHeaderHook(fn func(emsg wire.EMsg, msg *wire.Message)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.headerHook = fn
}

// Register wires a plain (non-monitored) message type into the dispatch
// table: on receipt, body is unmarshaled into a fresh T and delivered via
// send.
func Register[T protocol.Message](d *Dispatcher, emsg wire.EMsg, newT func() T, send func(T) int) {
	d.register(emsg, func(msg *wire.Message) error {
		decoded := newT()
		if err := decoded.Unmarshal(msg.Body); err != nil {
			return fmt.Errorf("dispatch: unmarshal %s: %w", emsg, err)
		}
		send(decoded)
		return nil
	})
}

// RegisterWithHeader wires a message type whose subscribers need the
// decoded header alongside the body — e.g. PackageData correlating a
// CMsgClientPICSProductInfoResponse back to the request it answers via
// jobid_target, the same way unified-messaging correlates responses via
// job-id but for a plain (non-ServiceMethod) request/response pair.
func RegisterWithHeader[T protocol.Message](d *Dispatcher, emsg wire.EMsg, newT func() T, send func(T, *wire.ProtoBufHeader) int) {
	d.register(emsg, func(msg *wire.Message) error {
		decoded := newT()
		if err := decoded.Unmarshal(msg.Body); err != nil {
			return fmt.Errorf("dispatch: unmarshal %s: %w", emsg, err)
		}
		send(decoded, msg.Proto)
		return nil
	})
}

// RegisterMonitored wires a message type that needs the destruct-monitor
// guarantee (§4.8): the handler blocks until every subscriber that received
// this delivery has called Release.
func RegisterMonitored[T protocol.Message](d *Dispatcher, emsg wire.EMsg, newT func() T, send func(Monitored[T]) int) {
	d.register(emsg, func(msg *wire.Message) error {
		decoded := newT()
		if err := decoded.Unmarshal(msg.Body); err != nil {
			return fmt.Errorf("dispatch: unmarshal %s: %w", emsg, err)
		}
		// A subscriber may Release before send returns, so the counter is
		// raised by a guard first and lowered to n once the count is known.
		const guard = 1 << 30
		wg := &sync.WaitGroup{}
		wg.Add(guard)
		mon := Monitored[T]{Value: decoded, done: wg}
		n := send(mon)
		wg.Add(n - guard)
		wg.Wait()
		return nil
	})
}

// Handle decodes one wire message and routes it through the dispatch table.
// CMsgMulti is handled specially: it is inflated (if gzip-compressed) and
// its inner framed packets are fed back into Handle recursively before
// Handle returns, preserving the ordering guarantee in §4.8 and §5
// ("CMsgMulti sub-packets are fully processed before the next outer packet
// is dispatched").
func (d *Dispatcher) Handle(raw []byte) error {
	emsg, isProto, err := wire.PeekMessageType(raw)
	if err != nil {
		return fmt.Errorf("dispatch: peek type: %w", err)
	}

	kind := wire.HeaderExtended
	if isProto {
		kind = wire.HeaderProtoBuf
	}
	if emsg == wire.EMsgClientLoggedOff {
		kind = wire.HeaderSimple
	}

	msg, err := wire.Decode(raw, kind)
	if err != nil {
		return fmt.Errorf("dispatch: decode %s: %w", emsg, err)
	}

	d.mu.RLock()
	hook := d.headerHook
	d.mu.RUnlock()
	if hook != nil {
		hook(emsg, msg)
	}

	if emsg == wire.EMsgMulti {
		return d.handleMulti(msg.Body)
	}

	d.mu.RLock()
	fn, ok := d.handlers[emsg]
	d.mu.RUnlock()
	if !ok {
		d.logger.Debug("dispatch: unhandled message type dropped", "emsg", emsg.String())
		return nil
	}
	return fn(msg)
}

func (d *Dispatcher) handleMulti(body []byte) error {
	var multi protocol.CMsgMulti
	if err := multi.Unmarshal(body); err != nil {
		return fmt.Errorf("dispatch: unmarshal Multi: %w", err)
	}

	inner := multi.MessageBody
	if multi.GetSizeUnzipped() > 0 {
		gz, err := gzip.NewReader(bytes.NewReader(inner))
		if err != nil {
			return fmt.Errorf("dispatch: gzip open Multi: %w", err)
		}
		defer gz.Close()
		plain, err := io.ReadAll(gz)
		if err != nil {
			return fmt.Errorf("dispatch: gzip inflate Multi: %w", err)
		}
		inner = plain
	}

	r := bytes.NewReader(inner)
	var sizeBuf [4]byte
	for {
		if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("dispatch: read Multi sub-message size: %w", err)
		}
		subSize := binary.LittleEndian.Uint32(sizeBuf[:])
		sub := make([]byte, subSize)
		if _, err := io.ReadFull(r, sub); err != nil {
			return fmt.Errorf("dispatch: read Multi sub-message body: %w", err)
		}
		if err := d.Handle(sub); err != nil {
			return fmt.Errorf("dispatch: sub-message: %w", err)
		}
	}
	return nil
}
