// Package notifications implements the Notifications feature module
// (§4.14), translating the already-dispatched CMsgClientUserNotifications/
// CMsgClientItemAnnouncements pushes into the TradeNotification/
// ItemNotification events other modules (tradeoffers, badgedata) react to.
// Grounded almost verbatim on the teacher's steamclient/notifications.go
// WithTradeNotificationHandler/WithItemNotificationHandler pair, adapted
// from functional-option callbacks into Messageboard events.
package notifications

import (
	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/modregistry"
	"github.com/k64z/steamfleet/protocol"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/waiter"
)

// userNotificationTypeTradeOffer is the CMsgClientUserNotifications entry
// type Steam uses for "you have a pending trade offer" (teacher constant).
const userNotificationTypeTradeOffer uint32 = 1

// TradeNotification reports the current pending-trade-offer count.
type TradeNotification struct {
	TradeOffersCount uint32
}

// ItemNotification reports a batch of newly received items.
type ItemNotification struct {
	NewItemCount uint32
}

type clientAPI interface {
	Messageboard() *messageboard.Messageboard
	Waiter() *waiter.Waiter
	Scheduler() *sched.Scheduler
}

// Module translates raw notification pushes into typed events.
type Module struct {
	c       clientAPI
	userObs *messageboard.Observer[*protocol.CMsgClientUserNotifications]
	itemObs *messageboard.Observer[*protocol.CMsgClientItemAnnouncements]
}

func init() {
	modregistry.Register("notifications", &Module{}, func(c any) modregistry.Module {
		return &Module{c: c.(clientAPI)}
	})
}

func (m *Module) Init(c any) error {
	m.userObs = messageboard.CreateObserver[*protocol.CMsgClientUserNotifications](m.c.Messageboard(), m.c.Waiter())
	m.itemObs = messageboard.CreateObserver[*protocol.CMsgClientItemAnnouncements](m.c.Messageboard(), m.c.Waiter())
	return nil
}

func (m *Module) Run(c any) error {
	ctx := m.c.Scheduler().Context()
	for {
		if result := m.c.Waiter().Wait(ctx, 0); result == waiter.WaitCancelled {
			return sched.ErrOperationCancelled
		}
		m.userObs.Handle(false, m.handleUser)
		m.itemObs.Handle(false, m.handleItem)
	}
}

func (m *Module) handleUser(msg *protocol.CMsgClientUserNotifications) {
	for _, n := range msg.Notifications {
		if n.GetUserNotificationType() == userNotificationTypeTradeOffer {
			messageboard.Send(m.c.Messageboard(), TradeNotification{TradeOffersCount: n.GetCount()})
		}
	}
}

func (m *Module) handleItem(msg *protocol.CMsgClientItemAnnouncements) {
	messageboard.Send(m.c.Messageboard(), ItemNotification{NewItemCount: msg.GetCountNewItems()})
}
