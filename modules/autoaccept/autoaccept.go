// Package autoaccept implements the AutoAccept feature module (§4.14), a
// thin policy layer over modules/tradeoffers: it observes
// IncomingTradeOffers and accepts offers matching the configured Policy,
// grounded on the teacher's steamclient/notifications.go
// WithTradeNotificationHandler pattern of reacting to a push by driving
// another collaborator, generalized here to drive tradeoffers.Module
// instead of a caller callback.
package autoaccept

import (
	"context"

	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/modregistry"
	"github.com/k64z/steamfleet/modules/tradeoffers"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/steamid"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/whiteboard"
)

// Policy controls which incoming offers autoaccept will accept.
type Policy int

const (
	// PolicyNone accepts nothing; the module only observes.
	PolicyNone Policy = iota
	// PolicyGiftsOnly accepts offers where the partner gives items and
	// receives none in return.
	PolicyGiftsOnly
	// PolicyManagedPartners accepts any offer from an account in the
	// configured partner set, regardless of item balance.
	PolicyManagedPartners
	// PolicyAll accepts every incoming offer.
	PolicyAll
)

// SetPolicy changes the module's active policy.
type SetPolicy struct {
	Policy Policy
}

// SetPartners configures the partner set PolicyManagedPartners consults.
type SetPartners struct {
	SteamIDs []steamid.SteamID
}

type clientAPI interface {
	Whiteboard() *whiteboard.Whiteboard
	Messageboard() *messageboard.Messageboard
	Waiter() *waiter.Waiter
	Scheduler() *sched.Scheduler
}

// Module applies an accept policy to tradeoffers.IncomingTradeOffers.
type Module struct {
	c   clientAPI
	set *modregistry.Set

	offersObs  *whiteboard.Observer
	policyObs  *messageboard.Observer[SetPolicy]
	partnerObs *messageboard.Observer[SetPartners]

	policy   Policy
	partners map[steamid.SteamID]bool
}

func init() {
	modregistry.Register("autoaccept", &Module{}, func(c any) modregistry.Module {
		return &Module{c: c.(clientAPI), partners: map[steamid.SteamID]bool{}}
	})
}

// Init wires the module's observers; the tradeoffers.Module sibling is
// looked up lazily in Run since modregistry.Instantiate does not guarantee
// construction order (§4.8 "module registry" imposes none).
func (m *Module) Init(client any) error {
	m.offersObs = whiteboard.CreateObserver[*tradeoffers.IncomingTradeOffers](m.c.Whiteboard(), m.c.Waiter())
	m.policyObs = messageboard.CreateObserver[SetPolicy](m.c.Messageboard(), m.c.Waiter())
	m.partnerObs = messageboard.CreateObserver[SetPartners](m.c.Messageboard(), m.c.Waiter())
	return nil
}

func (m *Module) Run(client any) error {
	if set, ok := client.(interface{ Modules() *modregistry.Set }); ok {
		m.set = set.Modules()
	}

	ctx := m.c.Scheduler().Context()
	for {
		if result := m.c.Waiter().Wait(ctx, 0); result == waiter.WaitCancelled {
			return sched.ErrOperationCancelled
		}

		m.policyObs.Handle(false, func(sp SetPolicy) { m.policy = sp.Policy })
		m.partnerObs.Handle(false, func(sp SetPartners) {
			next := make(map[steamid.SteamID]bool, len(sp.SteamIDs))
			for _, id := range sp.SteamIDs {
				next[id] = true
			}
			m.partners = next
		})

		if offers, ok := whiteboard.ObserverHas[*tradeoffers.IncomingTradeOffers](m.offersObs); ok && offers != nil {
			m.evaluate(ctx, offers)
		}
	}
}

func (m *Module) evaluate(ctx context.Context, offers *tradeoffers.IncomingTradeOffers) {
	if m.policy == PolicyNone || m.set == nil {
		return
	}
	to, ok := modregistry.Lookup[*tradeoffers.Module](m.set)
	if !ok {
		return
	}

	for _, offer := range offers.Offers {
		if !m.accepts(offer) {
			continue
		}
		_ = to.AcceptTradeOffer(ctx, offer.TradeOfferID, offer.PartnerSteamID)
	}
}

func (m *Module) accepts(offer tradeoffers.IncomingOffer) bool {
	switch m.policy {
	case PolicyAll:
		return true
	case PolicyGiftsOnly:
		return len(offer.ItemsToGive) == 0 && len(offer.ItemsToReceive) > 0
	case PolicyManagedPartners:
		return m.partners[offer.PartnerSteamID]
	default:
		return false
	}
}
