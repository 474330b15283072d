// Package unified implements the RPC-style service-call layer described in
// §4.9 ("Unified-messaging (C9)"), grounded on steamclient.Client's
// callServiceMethod/expectJobID job-ID correlation and generalized with the
// Busy-retry policy and server-push routing the teacher never needed (its
// only unified call was GenerateAccessTokenForApp, which never retries).
package unified

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/k64z/steamfleet/protocol"
	"github.com/k64z/steamfleet/wire"
)

// busyRetries and busySleep implement §4.9 step 6: "on eresult == Busy,
// retries step 3 up to 10 times with a 10s sleep between retries, then
// surfaces the error."
const (
	busyRetries = 10
	busySleep   = 10 * time.Second
)

// UnifiedError is raised when a call completes with a non-OK, non-retried
// eresult (§4.9 step 5).
type UnifiedError struct {
	Method  string
	EResult protocol.EResult
}

func (e *UnifiedError) Error() string {
	return fmt.Sprintf("unified: %s failed: eresult=%d", e.Method, e.EResult)
}

// Sender abstracts the outbound send path so unified doesn't need to know
// about transport or connection state; client.Client implements it.
type Sender interface {
	SendMessage(ctx context.Context, m *wire.Message) error
}

type pendingCall struct {
	resp chan *wire.Message
}

// Caller is the per-Client unified-messaging state: outstanding job
// correlation and the server-push method registry.
type Caller struct {
	send   Sender
	logger *slog.Logger

	nextJobID uint64

	mu      sync.Mutex
	pending map[uint64]*pendingCall
	pushes  map[string]func(*wire.Message)

	authedMu sync.RWMutex
	authed   bool
}

// New creates a Caller bound to send. Before login, calls use
// ServiceMethodCallFromClientNonAuthed; SetAuthed(true) switches to the
// authed variant once the logon handshake completes.
func New(send Sender, logger *slog.Logger) *Caller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Caller{
		send:    send,
		logger:  logger,
		pending: make(map[uint64]*pendingCall),
		pushes:  make(map[string]func(*wire.Message)),
	}
}

// SetAuthed flips which ServiceMethodCallFromClient* EMsg new calls use.
func (c *Caller) SetAuthed(authed bool) {
	c.authedMu.Lock()
	c.authed = authed
	c.authedMu.Unlock()
}

func (c *Caller) callEMsg() wire.EMsg {
	c.authedMu.RLock()
	defer c.authedMu.RUnlock()
	if c.authed {
		return wire.EMsgServiceMethodCallFromClient
	}
	return wire.EMsgServiceMethodCallFromClientNonAuthed
}

func (c *Caller) allocJobID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextJobID++
	return c.nextJobID
}

// Call performs one unified-messaging RPC (§4.9 steps 1-6): allocates a job
// ID, sends the wrapped request, and suspends until a response correlated
// by jobid_target arrives, retrying on Busy.
func (c *Caller) Call(ctx context.Context, method string, reqBody []byte) (*wire.Message, error) {
	var lastErr error
	for attempt := 0; attempt <= busyRetries; attempt++ {
		resp, eresult, err := c.callOnce(ctx, method, reqBody)
		if err != nil {
			return nil, err
		}
		if eresult == protocol.EResultOK {
			return resp, nil
		}
		if eresult != protocol.EResultBusy {
			return nil, &UnifiedError{Method: method, EResult: eresult}
		}
		lastErr = &UnifiedError{Method: method, EResult: eresult}
		c.logger.Debug("unified: Busy, retrying", "method", method, "attempt", attempt+1)
		select {
		case <-time.After(busySleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Caller) callOnce(ctx context.Context, method string, reqBody []byte) (*wire.Message, protocol.EResult, error) {
	jobID := c.allocJobID()
	call := &pendingCall{resp: make(chan *wire.Message, 1)}

	c.mu.Lock()
	c.pending[jobID] = call
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, jobID)
		c.mu.Unlock()
	}()

	msg := &wire.Message{
		Type: c.callEMsg(),
		Kind: wire.HeaderProtoBuf,
		Proto: &wire.ProtoBufHeader{Proto: &protocol.CMsgProtoBufHeader{
			JobidSource:   protocol.Uint64(jobID),
			TargetJobName: protocol.String(method),
		}},
		Body: reqBody,
	}

	if err := c.send.SendMessage(ctx, msg); err != nil {
		return nil, 0, fmt.Errorf("unified: send %s: %w", method, err)
	}

	select {
	case resp := <-call.resp:
		result := protocol.EResult(resp.Proto.Proto.GetEresult())
		if result == 0 {
			result = protocol.EResultOK
		}
		return resp, result, nil
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
}

// HandleResponse routes an incoming ServiceMethodResponse to the matching
// in-flight Call by jobid_target (§4.9 "Type resolution"). It reports
// whether the message was consumed as a correlated response.
func (c *Caller) HandleResponse(msg *wire.Message) bool {
	if msg.Proto == nil || msg.Proto.Proto == nil {
		return false
	}
	jobID := msg.Proto.Proto.GetJobidTarget()

	c.mu.Lock()
	call, ok := c.pending[jobID]
	c.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case call.resp <- msg:
	default:
	}
	return true
}

// RegisterPush installs a handler for server-initiated ServiceMethod
// notifications carrying target_job_name == method (§4.9 "Server-push
// notifications").
func (c *Caller) RegisterPush(method string, handler func(*wire.Message)) {
	c.mu.Lock()
	c.pushes[method] = handler
	c.mu.Unlock()
}

// HandlePush routes an incoming ServiceMethod message to its registered
// push handler, if any.
func (c *Caller) HandlePush(msg *wire.Message) error {
	if msg.Proto == nil || msg.Proto.Proto == nil {
		return errors.New("unified: push message missing proto header")
	}
	method := msg.Proto.Proto.GetTargetJobName()

	c.mu.Lock()
	handler, ok := c.pushes[method]
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("unified: push with no registered handler", "method", method)
		return nil
	}
	handler(msg)
	return nil
}
