// Package license implements the LicenseList feature module (§4.14): it
// subscribes to the CMsgClientLicenseList pushes client.Client's dispatch
// table already forwards onto the Messageboard, and republishes them as a
// packageId-keyed map on the Whiteboard for other modules (packagedata)
// to observe. The teacher has no equivalent — steamclient never
// tracked licenses at all — so this is grounded directly on the
// CMsgClientLicenseList wiring added to client.Client.registerHandlers.
package license

import (
	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/modregistry"
	"github.com/k64z/steamfleet/protocol"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/whiteboard"
)

// Info is one package's license terms as carried by CMsgClientLicenseList.
type Info struct {
	ChangeNumber    uint32
	LicenseType     uint32
	PaymentMethod   uint32
	AccessToken     uint64
	TimeCreated     uint32
	TimeNextProcess uint32
}

// Licenses is the Whiteboard value the module publishes: every package the
// account currently holds a license for, keyed by packageId (§4.14
// "Licenses::Ptr").
type Licenses struct {
	Map map[uint32]Info
}

type clientAPI interface {
	Whiteboard() *whiteboard.Whiteboard
	Messageboard() *messageboard.Messageboard
	Waiter() *waiter.Waiter
	Scheduler() *sched.Scheduler
}

// Module builds Licenses from every CMsgClientLicenseList push it observes.
type Module struct {
	c   clientAPI
	obs *messageboard.Observer[*protocol.CMsgClientLicenseList]
}

func init() {
	modregistry.Register("license", &Module{}, func(client any) modregistry.Module {
		return &Module{c: client.(clientAPI)}
	})
}

// Init registers the observer before Run starts waiting on it, since the
// server can push a license list at any point once logon completes.
func (m *Module) Init(client any) error {
	m.obs = messageboard.CreateObserver[*protocol.CMsgClientLicenseList](m.c.Messageboard(), m.c.Waiter())
	return nil
}

// Run rebuilds and republishes Licenses on every push, until cancelled.
func (m *Module) Run(client any) error {
	ctx := m.c.Scheduler().Context()
	for {
		if result := m.c.Waiter().Wait(ctx, 0); result == waiter.WaitCancelled {
			return sched.ErrOperationCancelled
		}
		m.obs.Handle(false, m.handle)
	}
}

func (m *Module) handle(msg *protocol.CMsgClientLicenseList) {
	out := make(map[uint32]Info, len(msg.Licenses))
	for _, l := range msg.Licenses {
		out[l.GetPackageId()] = Info{
			ChangeNumber:    derefU32(l.LastChangeNumber),
			LicenseType:     derefU32(l.LicenseType),
			PaymentMethod:   derefU32(l.PaymentMethod),
			AccessToken:     l.GetAccessToken(),
			TimeCreated:     derefU32(l.TimeCreated),
			TimeNextProcess: derefU32(l.TimeNextProcess),
		}
	}
	whiteboard.Set(m.c.Whiteboard(), &Licenses{Map: out})
}

func derefU32(p *uint32) uint32 {
	if p == nil {
		return 0
	}
	return *p
}
