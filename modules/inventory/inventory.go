// Package inventory implements the Inventory feature module (§4.14),
// grounded on the teacher's steamcommunity/inventory.go GetInventory: the
// same paginated-JSON-over-start_assetid fetch loop and
// private(403)/rate-limited(429) error handling, rewritten against the
// Whiteboard/Messageboard contract and a per-client 30s rate limiter
// instead of a bare method call.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/modregistry"
	"github.com/k64z/steamfleet/modules/assetdata"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/steamid"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/whiteboard"
)

// minFetchInterval enforces §4.14's "Rate-limited to one fetch per 30s."
const minFetchInterval = 30 * time.Second

var (
	// ErrPrivate reports a 403 response (inventory set to private).
	ErrPrivate = fmt.Errorf("inventory: private")
	// ErrRateLimited reports a 429 response from steamcommunity.
	ErrRateLimited = fmt.Errorf("inventory: rate limited")
)

// FetchRequest asks the module to (re)load one app/context inventory.
type FetchRequest struct {
	AppID     uint32
	ContextID uint64
}

// Item is one asset in a Snapshot; its description is resolved on demand
// via assetdata.Get rather than duplicated inline.
type Item struct {
	AssetID    string
	ClassID    string
	InstanceID string
	Amount     string
}

// Snapshot is the Whiteboard value the module publishes after a successful
// fetch (§4.14 "publishes Inventory::Ptr").
type Snapshot struct {
	AppID     uint32
	ContextID uint64
	Items     []Item
	When      time.Time
	Err       error
}

type clientAPI interface {
	Whiteboard() *whiteboard.Whiteboard
	Messageboard() *messageboard.Messageboard
	Waiter() *waiter.Waiter
	Scheduler() *sched.Scheduler
	HTTPClient() *http.Client
	SteamID() steamid.SteamID
}

// Module is the inventory runtime for one Client.
type Module struct {
	c      clientAPI
	reqObs *messageboard.Observer[FetchRequest]

	mu        sync.Mutex
	lastFetch time.Time
}

func init() {
	modregistry.Register("inventory", &Module{}, func(c any) modregistry.Module {
		return &Module{c: c.(clientAPI)}
	})
}

func (m *Module) Init(c any) error {
	m.reqObs = messageboard.CreateObserver[FetchRequest](m.c.Messageboard(), m.c.Waiter())
	return nil
}

func (m *Module) Run(c any) error {
	ctx := m.c.Scheduler().Context()
	for {
		if result := m.c.Waiter().Wait(ctx, 0); result == waiter.WaitCancelled {
			return sched.ErrOperationCancelled
		}
		m.reqObs.Handle(false, func(req FetchRequest) { m.fetch(ctx, req) })
	}
}

func (m *Module) fetch(ctx context.Context, req FetchRequest) {
	m.mu.Lock()
	if since := time.Since(m.lastFetch); since < minFetchInterval {
		m.mu.Unlock()
		return
	}
	m.lastFetch = time.Now()
	m.mu.Unlock()

	items, err := m.fetchAll(ctx, req.AppID, req.ContextID)
	whiteboard.Set(m.c.Whiteboard(), &Snapshot{
		AppID: req.AppID, ContextID: req.ContextID, Items: items, When: time.Now(), Err: err,
	})
}

type inventoryResponse struct {
	Assets       []inventoryAsset     `json:"assets"`
	Descriptions []inventoryDesc      `json:"descriptions"`
	MoreItems    int                  `json:"more_items"`
	LastAssetID  string               `json:"last_assetid"`
	Success      int                  `json:"success"`
}

type inventoryAsset struct {
	ContextID  string `json:"contextid"`
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	Amount     string `json:"amount"`
}

type inventoryDesc struct {
	ClassID    string            `json:"classid"`
	InstanceID string            `json:"instanceid"`
	Name       string            `json:"name"`
	MarketName string            `json:"market_name"`
	IconURL    string            `json:"icon_url"`
	Tradable   int               `json:"tradable"`
	Marketable int               `json:"marketable"`
	Tags       []inventoryTagDTO `json:"tags"`
}

type inventoryTagDTO struct {
	Category     string `json:"category"`
	InternalName string `json:"internal_name"`
	Name         string `json:"name"`
}

func descKey(classID, instanceID string) string { return classID + "_" + instanceID }

// fetchAll pages through the inventory endpoint, merging assets with
// descriptions and feeding descriptions into the shared asset-data cache,
// stopping when more_items != 1 (§4.14 "Inventory").
func (m *Module) fetchAll(ctx context.Context, appID uint32, contextID uint64) ([]Item, error) {
	var items []Item
	startAssetID := ""

	for {
		reqURL := fmt.Sprintf("https://steamcommunity.com/inventory/%d/%d/%d", uint64(m.c.SteamID()), appID, contextID)
		q := url.Values{"l": {"english"}, "count": {"5000"}}
		if startAssetID != "" {
			q.Set("start_assetid", startAssetID)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL+"?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("inventory: build request: %w", err)
		}

		resp, err := m.c.HTTPClient().Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("inventory: request: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrPrivate
		case http.StatusTooManyRequests:
			resp.Body.Close()
			return nil, ErrRateLimited
		}

		var page inventoryResponse
		decErr := json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if decErr != nil {
			return nil, fmt.Errorf("inventory: decode page: %w", decErr)
		}

		byKey := make(map[string]inventoryDesc, len(page.Descriptions))
		descs := make([]assetdata.Description, 0, len(page.Descriptions))
		for _, d := range page.Descriptions {
			byKey[descKey(d.ClassID, d.InstanceID)] = d
			tags := make([]assetdata.Tag, 0, len(d.Tags))
			for _, t := range d.Tags {
				tags = append(tags, assetdata.Tag{Category: t.Category, InternalName: t.InternalName, Name: t.Name})
			}
			descs = append(descs, assetdata.Description{
				AppID: appID, ClassID: d.ClassID, InstanceID: d.InstanceID,
				Name: d.Name, MarketName: d.MarketName, IconURL: d.IconURL,
				Tradable: d.Tradable != 0, Marketable: d.Marketable != 0, Tags: tags,
			})
		}
		assetdata.Merge(descs)

		for _, a := range page.Assets {
			items = append(items, Item{
				AssetID: a.AssetID, ClassID: a.ClassID, InstanceID: a.InstanceID, Amount: a.Amount,
			})
		}

		if page.MoreItems != 1 || page.LastAssetID == "" {
			return items, nil
		}
		startAssetID = page.LastAssetID
	}
}
