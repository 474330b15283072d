// Package tradeoffers implements the TradeOffers feature module (§4.14).
// SendTradeOffer/AcceptTradeOffer/CancelTradeOffer/DeclineTradeOffer are
// grounded on the teacher's steamcommunity/tradeoffer.go JSON-form POSTs to
// community.steamcommunity.com; IncomingTradeOffers is a supplemented
// feature (§SUPPLEMENTED FEATURES) the distillation dropped, scraping the
// tradeoffers page's embedded g_rgCurrentTradeOffers JSON blob — no example
// in the pack vendors an HTML parser, so this reads the well-known inline
// JS variable with a regexp instead of a DOM walk.
package tradeoffers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/modregistry"
	"github.com/k64z/steamfleet/modules/notifications"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/steamid"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/whiteboard"
)

// coalesceWindow batches rapid trade-offer notifications into one reload
// (§4.14 "a 15s coalescing window to batch rapid notifications").
const coalesceWindow = 15 * time.Second

// AssetRef identifies one item within an offer.
type AssetRef struct {
	AppID      uint32
	ContextID  uint64
	AssetID    string
	Amount     string
}

// IncomingOffer is one pending trade offer sent to this account.
type IncomingOffer struct {
	TradeOfferID   string
	PartnerSteamID steamid.SteamID
	Message        string
	ItemsToReceive []AssetRef
	ItemsToGive    []AssetRef
}

// IncomingTradeOffers is the Whiteboard value the module publishes after a
// (re)scrape of the tradeoffers page.
type IncomingTradeOffers struct {
	Offers []IncomingOffer
	When   time.Time
}

type clientAPI interface {
	Whiteboard() *whiteboard.Whiteboard
	Messageboard() *messageboard.Messageboard
	Waiter() *waiter.Waiter
	Scheduler() *sched.Scheduler
	HTTPClient() *http.Client
	SteamID() steamid.SteamID
}

// Module scrapes pending incoming trade offers and performs trade-offer
// actions on behalf of a Client.
type Module struct {
	c       clientAPI
	tradeObs *messageboard.Observer[notifications.TradeNotification]

	mu       sync.Mutex
	deadline time.Time // zero means no reload pending
}

func init() {
	modregistry.Register("tradeoffers", &Module{}, func(c any) modregistry.Module {
		return &Module{c: c.(clientAPI)}
	})
}

func (m *Module) Init(c any) error {
	m.tradeObs = messageboard.CreateObserver[notifications.TradeNotification](m.c.Messageboard(), m.c.Waiter())
	return nil
}

func (m *Module) Run(c any) error {
	ctx := m.c.Scheduler().Context()
	for {
		wait := m.nextWait()
		if result := m.c.Waiter().Wait(ctx, wait); result == waiter.WaitCancelled {
			return sched.ErrOperationCancelled
		}

		m.tradeObs.Handle(false, func(notifications.TradeNotification) { m.arm() })

		if m.due() {
			if err := m.reload(ctx); err != nil {
				return err
			}
		}
	}
}

func (m *Module) arm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deadline.IsZero() {
		m.deadline = time.Now().Add(coalesceWindow)
	}
}

func (m *Module) due() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deadline.IsZero() {
		return false
	}
	return !time.Now().Before(m.deadline)
}

func (m *Module) nextWait() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deadline.IsZero() {
		return 0
	}
	rem := time.Until(m.deadline)
	if rem < time.Millisecond {
		rem = time.Millisecond
	}
	return rem
}

func (m *Module) clearDeadline() {
	m.mu.Lock()
	m.deadline = time.Time{}
	m.mu.Unlock()
}

var rgOffersPattern = regexp.MustCompile(`g_rgCurrentTradeOffers\s*=\s*(\{.*?\});`)

type scrapedOffer struct {
	TradeOfferID   string `json:"tradeofferid"`
	AccountIDOther uint32 `json:"accountid_other"`
	Message        string `json:"message"`
	ItemsToReceive []scrapedAsset `json:"items_to_receive"`
	ItemsToGive    []scrapedAsset `json:"items_to_give"`
}

type scrapedAsset struct {
	AppID     uint32 `json:"appid"`
	ContextID uint64 `json:"contextid,string"`
	AssetID   string `json:"assetid"`
	Amount    string `json:"amount"`
}

// reload fetches the tradeoffers page and scrapes its embedded JSON blob
// into IncomingTradeOffers (§4.14 "TradeOffers").
func (m *Module) reload(ctx context.Context) error {
	defer m.clearDeadline()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://steamcommunity.com/id/me/tradeoffers/", nil)
	if err != nil {
		return fmt.Errorf("tradeoffers: build request: %w", err)
	}
	resp, err := m.c.HTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("tradeoffers: fetch page: %w", err)
	}
	defer resp.Body.Close()

	body := new(bytes.Buffer)
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("tradeoffers: read page: %w", err)
	}

	matches := rgOffersPattern.FindSubmatch(body.Bytes())
	if matches == nil {
		whiteboard.Set(m.c.Whiteboard(), &IncomingTradeOffers{When: time.Now()})
		return nil
	}

	var raw map[string]scrapedOffer
	if err := json.Unmarshal(matches[1], &raw); err != nil {
		return fmt.Errorf("tradeoffers: decode embedded offers: %w", err)
	}

	offers := make([]IncomingOffer, 0, len(raw))
	for _, o := range raw {
		offers = append(offers, IncomingOffer{
			TradeOfferID:   o.TradeOfferID,
			PartnerSteamID: accountIDToSteamID(o.AccountIDOther),
			Message:        o.Message,
			ItemsToReceive: toAssetRefs(o.ItemsToReceive),
			ItemsToGive:    toAssetRefs(o.ItemsToGive),
		})
	}

	whiteboard.Set(m.c.Whiteboard(), &IncomingTradeOffers{Offers: offers, When: time.Now()})
	return nil
}

func toAssetRefs(in []scrapedAsset) []AssetRef {
	out := make([]AssetRef, 0, len(in))
	for _, a := range in {
		out = append(out, AssetRef{AppID: a.AppID, ContextID: a.ContextID, AssetID: a.AssetID, Amount: a.Amount})
	}
	return out
}

// accountIDToSteamID expands a 32-bit account ID into a full individual
// SteamID64 (universe 1, account type 1 / "Individual").
func accountIDToSteamID(accountID uint32) steamid.SteamID {
	return steamid.SteamID(0).
		SetUniverse(1).
		SetType(1).
		SetInstance(1).
		SetAccountID(accountID)
}

type tradeOfferJSON struct {
	NewVersion bool                `json:"newversion"`
	Version    int                 `json:"version"`
	Me         tradeOfferPartyJSON `json:"me"`
	Them       tradeOfferPartyJSON `json:"them"`
}

type tradeOfferPartyJSON struct {
	Assets   []tradeOfferAssetJSON `json:"assets"`
	Currency []any                 `json:"currency"`
	Ready    bool                  `json:"ready"`
}

type tradeOfferAssetJSON struct {
	AppID     uint32 `json:"appid"`
	ContextID string `json:"contextid"`
	Amount    string `json:"amount"`
	AssetID   string `json:"assetid"`
}

func partyJSON(assets []AssetRef) tradeOfferPartyJSON {
	out := make([]tradeOfferAssetJSON, 0, len(assets))
	for _, a := range assets {
		out = append(out, tradeOfferAssetJSON{
			AppID: a.AppID, ContextID: strconv.FormatUint(a.ContextID, 10), Amount: a.Amount, AssetID: a.AssetID,
		})
	}
	return tradeOfferPartyJSON{Assets: out, Currency: []any{}, Ready: false}
}

// SendTradeOffer sends a new trade offer to partnerSteamID (§4.14, grounded
// on steamcommunity/tradeoffer.go's SendTradeOffer POST to
// /tradeoffer/new/send).
func (m *Module) SendTradeOffer(ctx context.Context, partnerSteamID steamid.SteamID, give, receive []AssetRef, message string) (string, error) {
	offer := tradeOfferJSON{
		NewVersion: true,
		Version:    4,
		Me:         partyJSON(give),
		Them:       partyJSON(receive),
	}
	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return "", fmt.Errorf("tradeoffers: marshal offer: %w", err)
	}

	form := url.Values{
		"sessionid":           {m.sessionID()},
		"serverid":            {"1"},
		"partner":             {strconv.FormatUint(uint64(partnerSteamID), 10)},
		"tradeoffermessage":   {message},
		"json_tradeoffer":     {string(offerJSON)},
		"trade_offer_create_params": {"{}"},
	}

	var out struct {
		TradeOfferID string `json:"tradeofferid"`
	}
	if err := m.post(ctx, "https://steamcommunity.com/tradeoffer/new/send", form, &out); err != nil {
		return "", err
	}
	return out.TradeOfferID, nil
}

// AcceptTradeOffer accepts a pending incoming offer (grounded on
// steamcommunity/tradeoffer.go's AcceptTradeOffer).
func (m *Module) AcceptTradeOffer(ctx context.Context, tradeOfferID string, partnerSteamID steamid.SteamID) error {
	form := url.Values{
		"sessionid":      {m.sessionID()},
		"serverid":       {"1"},
		"tradeofferid":   {tradeOfferID},
		"partner":        {strconv.FormatUint(uint64(partnerSteamID), 10)},
		"captcha":        {""},
	}
	return m.post(ctx, fmt.Sprintf("https://steamcommunity.com/tradeoffer/%s/accept", tradeOfferID), form, nil)
}

// CancelTradeOffer cancels an offer this account sent.
func (m *Module) CancelTradeOffer(ctx context.Context, tradeOfferID string) error {
	return m.cancelOrDecline(ctx, tradeOfferID, "cancel")
}

// DeclineTradeOffer declines an offer this account received.
func (m *Module) DeclineTradeOffer(ctx context.Context, tradeOfferID string) error {
	return m.cancelOrDecline(ctx, tradeOfferID, "decline")
}

func (m *Module) cancelOrDecline(ctx context.Context, tradeOfferID, action string) error {
	form := url.Values{"sessionid": {m.sessionID()}}
	u := fmt.Sprintf("https://steamcommunity.com/tradeoffer/%s/%s", tradeOfferID, action)
	return m.post(ctx, u, form, nil)
}

func (m *Module) post(ctx context.Context, u string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("tradeoffers: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://steamcommunity.com/id/me/tradeoffers/")

	resp, err := m.c.HTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("tradeoffers: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tradeoffers: %s: status %d", u, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (m *Module) sessionID() string {
	jar := m.c.HTTPClient().Jar
	if jar == nil {
		return ""
	}
	u, _ := url.Parse("https://steamcommunity.com")
	for _, ck := range jar.Cookies(u) {
		if ck.Name == "sessionid" {
			return ck.Value
		}
	}
	return ""
}
