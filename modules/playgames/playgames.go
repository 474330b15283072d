// Package playgames implements the PlayGames feature module (§4.14),
// grounded on the teacher's steamclient/games.go SetGamesPlayed, extended
// with the pause-resume playtime-commit cycle the teacher never needed
// (its caller owned game-session lifetime directly; here the module owns
// it so cardfarmer/autoaccept can drive it without touching the wire).
package playgames

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/modregistry"
	"github.com/k64z/steamfleet/protocol"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/wire"
)

// nextUpdateInterval and pausePeriod implement §4.14's "every nextUpdate
// fires a pause-resume cycle (paused=true for 5s, then paused=false and
// extend 10 min) to force a Steam-side playtime commit."
const (
	nextUpdateInterval = 10 * time.Minute
	pausePeriod        = 5 * time.Second
)

// Request sets the set of appIDs currently being "played"; an empty AppIDs
// stops all of them.
type Request struct {
	AppIDs []uint32
}

type gameState struct {
	nextUpdate time.Time
	paused     bool
	pauseUntil time.Time
}

type clientAPI interface {
	Messageboard() *messageboard.Messageboard
	Waiter() *waiter.Waiter
	Scheduler() *sched.Scheduler
	SendMessage(ctx context.Context, m *wire.Message) error
}

// Module tracks the currently-played app set and its pause-resume cycle.
type Module struct {
	c      clientAPI
	reqObs *messageboard.Observer[Request]

	mu    sync.Mutex
	games map[uint32]*gameState
}

func init() {
	modregistry.Register("playgames", &Module{}, func(c any) modregistry.Module {
		return &Module{c: c.(clientAPI), games: make(map[uint32]*gameState)}
	})
}

func (m *Module) Init(c any) error {
	m.reqObs = messageboard.CreateObserver[Request](m.c.Messageboard(), m.c.Waiter())
	return nil
}

func (m *Module) Run(c any) error {
	ctx := m.c.Scheduler().Context()
	for {
		wait := m.nextDeadline()
		if result := m.c.Waiter().Wait(ctx, wait); result == waiter.WaitCancelled {
			return sched.ErrOperationCancelled
		}

		m.reqObs.Handle(false, func(req Request) { m.handleRequest(ctx, req) })
		if err := m.tick(ctx); err != nil {
			return err
		}
	}
}

func (m *Module) handleRequest(ctx context.Context, req Request) {
	m.mu.Lock()
	now := time.Now()
	if len(req.AppIDs) == 0 {
		m.games = map[uint32]*gameState{}
	} else {
		next := make(map[uint32]*gameState, len(req.AppIDs))
		for _, id := range req.AppIDs {
			if g, ok := m.games[id]; ok {
				next[id] = g
				continue
			}
			next[id] = &gameState{nextUpdate: now.Add(nextUpdateInterval)}
		}
		m.games = next
	}
	m.mu.Unlock()

	if err := m.sendCurrent(ctx); err != nil {
		_ = err // best effort; the next tick/request retries
	}
}

func (m *Module) tick(ctx context.Context) error {
	m.mu.Lock()
	now := time.Now()
	changed := false
	for _, g := range m.games {
		switch {
		case g.paused && !now.Before(g.pauseUntil):
			g.paused = false
			g.nextUpdate = now.Add(nextUpdateInterval)
			changed = true
		case !g.paused && !now.Before(g.nextUpdate):
			g.paused = true
			g.pauseUntil = now.Add(pausePeriod)
			changed = true
		}
	}
	m.mu.Unlock()

	if !changed {
		return nil
	}
	return m.sendCurrent(ctx)
}

// sendCurrent sends CMsgClientGamesPlayed for every tracked game that isn't
// currently paused (§4.14 "all paused games are omitted from the next sent
// list").
func (m *Module) sendCurrent(ctx context.Context) error {
	m.mu.Lock()
	played := make([]*protocol.GamePlayed, 0, len(m.games))
	for appID, g := range m.games {
		if g.paused {
			continue
		}
		played = append(played, &protocol.GamePlayed{GameId: protocol.Uint64(uint64(appID))})
	}
	m.mu.Unlock()

	body, err := (&protocol.CMsgClientGamesPlayed{GamesPlayed: played}).Marshal()
	if err != nil {
		return fmt.Errorf("playgames: marshal games played: %w", err)
	}
	return m.c.SendMessage(ctx, &wire.Message{
		Type:  wire.EMsgClientGamesPlayed,
		Kind:  wire.HeaderProtoBuf,
		Proto: &wire.ProtoBufHeader{Proto: &protocol.CMsgProtoBufHeader{}},
		Body:  body,
	})
}

func (m *Module) nextDeadline() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.games) == 0 {
		return 0
	}
	now := time.Now()
	best := time.Duration(-1)
	for _, g := range m.games {
		deadline := g.nextUpdate
		if g.paused {
			deadline = g.pauseUntil
		}
		rem := deadline.Sub(now)
		if rem < time.Millisecond {
			rem = time.Millisecond
		}
		if best < 0 || rem < best {
			best = rem
		}
	}
	return best
}
