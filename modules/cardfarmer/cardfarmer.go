// Package cardfarmer implements the CardFarmer feature module
// (§SUPPLEMENTED FEATURES), grounded on original_source's
// Sources/Modules/CardFarmer.cpp: it is deliberately a thin illustrative
// policy over modules/playgames, not a complete card-drop economics engine
// (per spec.md §1's Non-goals) — on every BadgeData change it asks
// playgames to idle whichever apps still have a badge below
// cardCompletionLevel, and stops idling the rest.
package cardfarmer

import (
	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/modregistry"
	"github.com/k64z/steamfleet/modules/badgedata"
	"github.com/k64z/steamfleet/modules/playgames"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/whiteboard"
)

// cardCompletionLevel is the badge level a fully-dropped set reaches; a
// badge below it still has cards to farm. Steam's normal badge uses level 1
// for the base set.
const cardCompletionLevel = 1

type clientAPI interface {
	Whiteboard() *whiteboard.Whiteboard
	Messageboard() *messageboard.Messageboard
	Waiter() *waiter.Waiter
	Scheduler() *sched.Scheduler
}

// Module drives playgames.Request from BadgeData changes.
type Module struct {
	c   clientAPI
	obs *whiteboard.Observer
}

func init() {
	modregistry.Register("cardfarmer", &Module{}, func(c any) modregistry.Module {
		return &Module{c: c.(clientAPI)}
	})
}

func (m *Module) Init(client any) error {
	m.obs = whiteboard.CreateObserver[*badgedata.BadgeData](m.c.Whiteboard(), m.c.Waiter())
	return nil
}

func (m *Module) Run(client any) error {
	ctx := m.c.Scheduler().Context()
	for {
		if result := m.c.Waiter().Wait(ctx, 0); result == waiter.WaitCancelled {
			return sched.ErrOperationCancelled
		}
		if data, ok := whiteboard.ObserverHas[*badgedata.BadgeData](m.obs); ok && data != nil {
			m.process(data)
		}
	}
}

func (m *Module) process(data *badgedata.BadgeData) {
	var toFarm []uint32
	for appID, b := range data.Badges {
		if b.Level < cardCompletionLevel {
			toFarm = append(toFarm, appID)
		}
	}
	messageboard.Send(m.c.Messageboard(), playgames.Request{AppIDs: toFarm})
}
