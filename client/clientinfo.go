package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/k64z/steamfleet/transport"
)

// restartBackoff is how long Launch waits before relaunching a Client whose
// Run ended with a Restart disposition (§4.12 step 6).
const restartBackoff = 15 * time.Second

// ClientInfo is the process-wide registry of active Clients, grouped by an
// application-chosen group name (e.g. "farm", "trade-bot") so callers can
// wait on or enumerate a cohort together (§4.12/§6.4 "ClientInfo registry").
type ClientInfo struct {
	mu     sync.Mutex
	active map[string]*entry // keyed by account name
}

type entry struct {
	group  string
	client *Client
	done   chan struct{}
}

// NewClientInfo creates an empty registry.
func NewClientInfo() *ClientInfo {
	return &ClientInfo{active: make(map[string]*entry)}
}

// Find returns the active Client for accountName, if any.
func (ci *ClientInfo) Find(accountName string) (*Client, bool) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	e, ok := ci.active[accountName]
	if !ok {
		return nil, false
	}
	return e.client, true
}

// GetClients returns every active Client in group.
func (ci *ClientInfo) GetClients(group string) []*Client {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	var out []*Client
	for _, e := range ci.active {
		if e.group == group {
			out = append(out, e.client)
		}
	}
	return out
}

// GetGroup reports the group a given account's Client was launched into.
func (ci *ClientInfo) GetGroup(accountName string) (string, bool) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	e, ok := ci.active[accountName]
	if !ok {
		return "", false
	}
	return e.group, true
}

// WaitAll blocks until every currently-registered Client in group has
// terminated (or ctx is cancelled).
func (ci *ClientInfo) WaitAll(ctx context.Context, group string) error {
	ci.mu.Lock()
	var dones []chan struct{}
	for _, e := range ci.active {
		if e.group == group {
			dones = append(dones, e.done)
		}
	}
	ci.mu.Unlock()

	for _, done := range dones {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Launch starts a Client for info under group, rejecting the call if that
// account already has an active Client (§4.12 step 1: "launch(accountInfo)
// — reject if the account is already active"). It runs the full lifecycle
// (construct Client, construct modules, init, run) in a new goroutine and
// applies the Restart backoff itself, so callers get a fire-and-forget
// handle plus the ability to WaitAll on the group.
func (ci *ClientInfo) Launch(ctx context.Context, endpoint transport.EndpointProvider, info AccountInfo, group, steamDataDir string, logger *slog.Logger, opts ...Option) error {
	ci.mu.Lock()
	if _, exists := ci.active[info.AccountName]; exists {
		ci.mu.Unlock()
		return fmt.Errorf("client: account %q is already active", info.AccountName)
	}
	e := &entry{group: group, done: make(chan struct{})}
	ci.active[info.AccountName] = e
	ci.mu.Unlock()

	go ci.runLoop(ctx, endpoint, info, group, steamDataDir, logger, e, opts...)
	return nil
}

func (ci *ClientInfo) runLoop(ctx context.Context, endpoint transport.EndpointProvider, info AccountInfo, group, steamDataDir string, logger *slog.Logger, e *entry, opts ...Option) {
	defer func() {
		ci.mu.Lock()
		delete(ci.active, info.AccountName)
		ci.mu.Unlock()
		close(e.done)
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := endpoint.Connect(ctx)
		if err != nil {
			logger.Error("client: connect failed", "account", info.AccountName, "error", err)
			return
		}

		c, err := New(conn, info, steamDataDir, logger, opts...)
		if err != nil {
			logger.Error("client: construct failed", "account", info.AccountName, "error", err)
			conn.Close()
			return
		}

		ci.mu.Lock()
		e.client = c
		ci.mu.Unlock()

		runErr := c.Run(ctx)
		conn.Close()

		if runErr == nil {
			return
		}
		if !ErrRestart(runErr) {
			logger.Error("client: run ended", "account", info.AccountName, "error", runErr)
			return
		}

		logger.Warn("client: restarting after backoff", "account", info.AccountName, "backoff", restartBackoff)
		select {
		case <-time.After(restartBackoff):
		case <-ctx.Done():
			return
		}
	}
}
