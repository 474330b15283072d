// Package packagedata implements the PackageData feature module (§4.14):
// it observes the license module's Licenses::Ptr, diffs against a
// per-Steam-account cache, resolves stale packages via
// CMsgClientPICSProductInfoRequest, and persists the merged cache to the
// shared Steam-scoped DataFile (C13) whenever an entry changes. PICS
// requests/responses are not unified-messaging RPCs — they're correlated
// over the raw wire via dispatch.RegisterWithHeader (client.PICSResponse)
// the same way unified.Caller correlates ServiceMethod* traffic, but with
// a job-ID counter this module owns itself (grounded on
// unified.Caller.allocJobID).
package packagedata

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/k64z/steamfleet/client"
	"github.com/k64z/steamfleet/datafile"
	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/modregistry"
	"github.com/k64z/steamfleet/modules/license"
	"github.com/k64z/steamfleet/protocol"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/steamid"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/whiteboard"
	"github.com/k64z/steamfleet/wire"
)

// CachedPackage is one package's last-known change number and decoded
// KeyValue payload.
type CachedPackage struct {
	ChangeNumber uint32
	Data         map[string]any
}

// Cache is the persisted document shared by every Client logged into the
// same Steam account (§5 "PackageData cache: shared across all Clients in
// the process").
type Cache struct {
	Packages map[uint32]CachedPackage
}

// Published is the Whiteboard value the module republishes once a PICS
// response has been merged, pinned to the Licenses::Ptr that triggered the
// request it answers (§4.14 "publishes the updated cache view pinned to
// the causing Licenses::Ptr").
type Published struct {
	Cache    Cache
	Licenses *license.Licenses
}

type clientAPI interface {
	Whiteboard() *whiteboard.Whiteboard
	Messageboard() *messageboard.Messageboard
	Waiter() *waiter.Waiter
	Scheduler() *sched.Scheduler
	SteamDataDir() string
	SteamID() steamid.SteamID
	SendMessage(ctx context.Context, m *wire.Message) error
}

// Module is the packagedata runtime for one Client.
type Module struct {
	c clientAPI

	licenseObs *whiteboard.Observer
	picsObs    *messageboard.Observer[client.PICSResponse]

	df *datafile.DataFile[Cache]

	jobMu     sync.Mutex
	nextJobID uint64
	pending   map[uint64]*license.Licenses
}

func init() {
	modregistry.Register("packagedata", &Module{}, func(c any) modregistry.Module {
		return &Module{c: c.(clientAPI), pending: make(map[uint64]*license.Licenses)}
	})
}

// Init opens the shared per-Steam-account cache file and registers the
// module's observers.
func (m *Module) Init(c any) error {
	name := fmt.Sprintf("%d", uint64(m.c.SteamID()))
	df, err := datafile.Open[Cache](m.c.SteamDataDir(), datafile.PrefixSteam, name)
	if err != nil {
		return fmt.Errorf("packagedata: open cache: %w", err)
	}
	m.df = df

	m.licenseObs = whiteboard.CreateObserver[*license.Licenses](m.c.Whiteboard(), m.c.Waiter())
	m.picsObs = messageboard.CreateObserver[client.PICSResponse](m.c.Messageboard(), m.c.Waiter())
	return nil
}

// Run drains PICS responses and issues requests for any package whose
// change number has advanced past the cache, until cancelled.
func (m *Module) Run(c any) error {
	ctx := m.c.Scheduler().Context()
	for {
		if result := m.c.Waiter().Wait(ctx, 0); result == waiter.WaitCancelled {
			return sched.ErrOperationCancelled
		}

		m.picsObs.Handle(false, func(resp client.PICSResponse) {
			if err := m.handleResponse(resp); err != nil {
				return
			}
		})

		if lic, ok := whiteboard.ObserverHas[*license.Licenses](m.licenseObs); ok {
			if err := m.requestDiff(ctx, lic); err != nil {
				return err
			}
		}
	}
}

func (m *Module) allocJobID() uint64 {
	m.jobMu.Lock()
	defer m.jobMu.Unlock()
	m.nextJobID++
	return m.nextJobID
}

// requestDiff computes diff = {license | cached.changeNumber < license
// .changeNumber or missing} and issues one CMsgClientPICSProductInfoRequest
// covering it (§4.14 "PackageData" step 1).
func (m *Module) requestDiff(ctx context.Context, lic *license.Licenses) error {
	var cache Cache
	m.df.Examine(func(c Cache) { cache = c })

	var reqs []*protocol.PICSPackageRequest
	for pkgID, info := range lic.Map {
		if cached, ok := cache.Packages[pkgID]; ok && cached.ChangeNumber >= info.ChangeNumber {
			continue
		}
		reqs = append(reqs, &protocol.PICSPackageRequest{
			Packageid:   protocol.Uint32(pkgID),
			AccessToken: protocol.Uint64(info.AccessToken),
		})
	}
	if len(reqs) == 0 {
		return nil
	}

	jobID := m.allocJobID()
	m.jobMu.Lock()
	m.pending[jobID] = lic
	m.jobMu.Unlock()

	body, err := (&protocol.CMsgClientPICSProductInfoRequest{Packages: reqs}).Marshal()
	if err != nil {
		return fmt.Errorf("packagedata: marshal PICS request: %w", err)
	}

	return m.c.SendMessage(ctx, &wire.Message{
		Type: wire.EMsgClientPICSProductInfoRequest,
		Kind: wire.HeaderProtoBuf,
		Proto: &wire.ProtoBufHeader{Proto: &protocol.CMsgProtoBufHeader{
			JobidSource: protocol.Uint64(jobID),
		}},
		Body: body,
	})
}

// handleResponse merges a PICS response into the cache, persisting it if
// anything changed, and republishes the cache pinned to the Licenses::Ptr
// that caused the request it answers (§4.14 "PackageData" steps 2-3).
func (m *Module) handleResponse(resp client.PICSResponse) error {
	m.jobMu.Lock()
	lic, known := m.pending[resp.JobIDTarget]
	if known {
		delete(m.pending, resp.JobIDTarget)
	}
	m.jobMu.Unlock()

	errUnchanged := errors.New("packagedata: no package changed")
	changed := false
	var merged Cache
	err := m.df.Update(func(c *Cache) error {
		if c.Packages == nil {
			c.Packages = map[uint32]CachedPackage{}
		}
		for _, pkg := range resp.Msg.Packages {
			data, err := parseBinaryVDF(pkg.Buffer)
			if err != nil {
				return fmt.Errorf("parse package %d: %w", pkg.GetPackageid(), err)
			}
			cached, ok := c.Packages[pkg.GetPackageid()]
			if ok && cached.ChangeNumber == pkg.GetChangeNumber() {
				continue
			}
			c.Packages[pkg.GetPackageid()] = CachedPackage{ChangeNumber: pkg.GetChangeNumber(), Data: data}
			changed = true
		}
		if !changed {
			return errUnchanged // skips the write
		}
		merged = *c
		return nil
	})
	if err == errUnchanged {
		return nil
	}
	if err != nil {
		return fmt.Errorf("packagedata: merge response: %w", err)
	}
	if !changed || !known {
		return nil
	}

	whiteboard.Set(m.c.Whiteboard(), &Published{Cache: merged, Licenses: lic})
	return nil
}
