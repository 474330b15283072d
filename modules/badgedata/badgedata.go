// Package badgedata implements the BadgeData feature module
// (§SUPPLEMENTED FEATURES): it calls the unified Player.GetBadges#1 method
// and republishes the result as a Whiteboard value whenever an
// ItemNotification or an explicit Refresh suggests a badge may have
// progressed, grounded on modules/packagedata's request/observe/republish
// shape (itself grounded on unified.Caller's job-correlated RPC pattern)
// rather than original_source's HTML-scraped badge pages.
package badgedata

import (
	"context"
	"fmt"

	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/modregistry"
	"github.com/k64z/steamfleet/modules/notifications"
	"github.com/k64z/steamfleet/protocol"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/steamid"
	"github.com/k64z/steamfleet/unified"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/whiteboard"
	"github.com/k64z/steamfleet/wire"
)

// Badge is one game's card-badge progress, trimmed from
// CPlayer_GetBadges_Response's per-badge fields to what policy modules
// (cardfarmer) need.
type Badge struct {
	AppID   uint32
	Level   uint32
	XP      uint32
}

// BadgeData is the Whiteboard value published after each successful
// Player.GetBadges#1 call (§SUPPLEMENTED FEATURES "BadgeData").
type BadgeData struct {
	Badges map[uint32]Badge
}

// Refresh forces an immediate reload.
type Refresh struct{}

type clientAPI interface {
	Whiteboard() *whiteboard.Whiteboard
	Messageboard() *messageboard.Messageboard
	Waiter() *waiter.Waiter
	Scheduler() *sched.Scheduler
	Caller() *unified.Caller
	SteamID() steamid.SteamID
}

// Module maintains the BadgeData Whiteboard value for one Client.
type Module struct {
	c clientAPI

	refreshObs *messageboard.Observer[Refresh]
	itemObs    *messageboard.Observer[notifications.ItemNotification]

	loaded bool
}

func init() {
	modregistry.Register("badgedata", &Module{}, func(c any) modregistry.Module {
		return &Module{c: c.(clientAPI)}
	})
}

func (m *Module) Init(client any) error {
	m.refreshObs = messageboard.CreateObserver[Refresh](m.c.Messageboard(), m.c.Waiter())
	m.itemObs = messageboard.CreateObserver[notifications.ItemNotification](m.c.Messageboard(), m.c.Waiter())
	return nil
}

func (m *Module) Run(client any) error {
	ctx := m.c.Scheduler().Context()
	for {
		if result := m.c.Waiter().Wait(ctx, 0); result == waiter.WaitCancelled {
			return sched.ErrOperationCancelled
		}

		if !m.loaded {
			if err := m.reload(ctx); err != nil {
				return err
			}
			m.loaded = true
		}

		reload := false
		m.refreshObs.Handle(false, func(Refresh) { reload = true })
		m.itemObs.Handle(false, func(notifications.ItemNotification) { reload = true })
		if reload {
			if err := m.reload(ctx); err != nil {
				return err
			}
		}
	}
}

// reload performs one Player.GetBadges#1 call and republishes BadgeData
// (§SUPPLEMENTED FEATURES "BadgeData").
func (m *Module) reload(ctx context.Context) error {
	reqBody, err := (&protocol.CPlayer_GetBadges_Request{
		Steamid: protocol.Uint64(uint64(m.c.SteamID())),
	}).Marshal()
	if err != nil {
		return fmt.Errorf("badgedata: marshal request: %w", err)
	}

	resp, err := m.c.Caller().Call(ctx, "Player.GetBadges#1", reqBody)
	if err != nil {
		return fmt.Errorf("badgedata: Player.GetBadges#1: %w", err)
	}

	var out protocol.CPlayer_GetBadges_Response
	if err := out.Unmarshal(respBody(resp)); err != nil {
		return fmt.Errorf("badgedata: decode response: %w", err)
	}

	badges := make(map[uint32]Badge, len(out.Badges))
	for _, b := range out.Badges {
		badges[b.GetAppID()] = Badge{AppID: b.GetAppID(), Level: b.GetLevel(), XP: b.GetXp()}
	}

	whiteboard.Set(m.c.Whiteboard(), &BadgeData{Badges: badges})
	return nil
}

func respBody(msg *wire.Message) []byte {
	if msg == nil {
		return nil
	}
	return msg.Body
}
