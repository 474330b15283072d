// Package client implements the per-account Client runtime described in
// §4.12 ("Client lifecycle (C12)"), wiring together the Scheduler (C3),
// Whiteboard (C4), Messageboard (C5), Waiter (C6), module registry (C7),
// dispatch table (C8), unified-messaging caller (C9) and login state
// machine (C10) into one object per logged-in Steam account. Grounded on
// steamclient.Client's constructor/Connect/Login/readLoop/Disconnect
// sequence, generalized from one hardcoded feature set into the
// modregistry-driven plugin model §4.14 calls for.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/k64z/steamfleet/clientstate"
	"github.com/k64z/steamfleet/datafile"
	"github.com/k64z/steamfleet/dispatch"
	"github.com/k64z/steamfleet/login"
	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/modregistry"
	"github.com/k64z/steamfleet/protocol"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/steamid"
	"github.com/k64z/steamfleet/transport"
	"github.com/k64z/steamfleet/unified"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/whiteboard"
	"github.com/k64z/steamfleet/wire"
)

// config collects the options New accepts: login.Option configures the
// embedded login.Machine, WithHTTPClient overrides the HTTP client feature
// modules that talk to steamcommunity/api.steampowered.com use (§4.14
// Inventory/TradeOffers), since those are cookie-authenticated separately
// from the CM connection's refresh-token logon.
type config struct {
	loginOpts  []login.Option
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*config)

// WithLoginOption forwards a login.Option to the embedded login.Machine.
func WithLoginOption(o login.Option) Option {
	return func(c *config) { c.loginOpts = append(c.loginOpts, o) }
}

// WithHTTPClient overrides the cookie-jar HTTP client feature modules use
// for steamcommunity/IEconService calls. Callers are responsible for
// populating its Jar with the web session cookies a prior browser or
// ISteamUserAuth exchange produced; this runtime only drives the CM
// connection's own login, not that web-session exchange (§9 open question).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

func defaultHTTPClient() *http.Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &http.Client{Jar: jar, Timeout: 30 * time.Second}
}

// AccountInfo names the account a Client is launched for and where its
// per-account state lives on disk.
type AccountInfo struct {
	AccountName string
	Password    string
	DataDir     string
}

type accountData struct {
	RefreshToken string `json:"refresh_token"`
	GuardData    string `json:"guard_data"`
	SharedSecret string `json:"shared_secret"`
}

// accountStore adapts a datafile.DataFile[accountData] to login.Store so
// the login state machine never needs to know about JSON persistence.
type accountStore struct {
	df     *datafile.DataFile[accountData]
	logger *slog.Logger
}

func (s *accountStore) RefreshToken() string {
	var v string
	s.df.Examine(func(d accountData) { v = d.RefreshToken })
	return v
}

func (s *accountStore) SetRefreshToken(token string) {
	s.tryUpdate(func(d *accountData) { d.RefreshToken = token })
}

func (s *accountStore) ClearRefreshToken() {
	s.tryUpdate(func(d *accountData) { d.RefreshToken = "" })
}

func (s *accountStore) GuardData() string {
	var v string
	s.df.Examine(func(d accountData) { v = d.GuardData })
	return v
}

func (s *accountStore) SetGuardData(data string) {
	s.tryUpdate(func(d *accountData) { d.GuardData = data })
}

func (s *accountStore) SharedSecret() string {
	var v string
	s.df.Examine(func(d accountData) { v = d.SharedSecret })
	return v
}

func (s *accountStore) tryUpdate(mutate func(*accountData)) {
	if err := s.df.Update(func(d *accountData) error { mutate(d); return nil }); err != nil {
		s.logger.Error("client: persist account data failed", "error", err)
	}
}

// Client is one logged-in (or logging-in) Steam account's runtime state:
// one connection, one scheduler, one set of module instances.
type Client struct {
	info   AccountInfo
	logger *slog.Logger

	conn transport.Connection

	sched      *sched.Scheduler
	wb         *whiteboard.Whiteboard
	mb         *messageboard.Messageboard
	w          *waiter.Waiter
	dispatcher *dispatch.Dispatcher
	caller     *unified.Caller
	modules    *modregistry.Set
	login      *login.Machine
	store      *accountStore
	httpClient *http.Client

	sendMu sync.Mutex

	readyOnce sync.Once
	ready     chan struct{}

	steamDataDir string
}

// New constructs a Client bound to an already-connected transport.Connection
// (dialing/discovery is Launch's job, via a transport.EndpointProvider).
func New(conn transport.Connection, info AccountInfo, steamDataDir string, logger *slog.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("account", info.AccountName)

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = defaultHTTPClient()
	}

	df, err := datafile.Open[accountData](info.DataDir, datafile.PrefixAccount, info.AccountName)
	if err != nil {
		return nil, fmt.Errorf("client: open account data file: %w", err)
	}
	store := &accountStore{df: df, logger: logger}

	c := &Client{
		info:         info,
		logger:       logger,
		conn:         conn,
		sched:        sched.New(context.Background(), logger),
		wb:           whiteboard.New(),
		mb:           messageboard.New(),
		w:            waiter.New(),
		dispatcher:   dispatch.New(logger),
		store:        store,
		httpClient:   cfg.httpClient,
		steamDataDir: steamDataDir,
		ready:        make(chan struct{}),
	}
	c.caller = unified.New(c, logger)
	c.login = login.New(c, c.caller, c.wb, c.mb, c.w, store, logger, cfg.loginOpts...)
	c.registerHandlers()
	c.modules = modregistry.Instantiate(c)

	whiteboard.Set(c.wb, clientstate.Status(clientstate.StatusLoggedOut))
	return c, nil
}

// Whiteboard, Messageboard, Waiter, Caller, Modules and Scheduler expose the
// shared collaborators to feature modules (§4.14's module Init/Run
// contract receives the Client and pulls these off it).
func (c *Client) Whiteboard() *whiteboard.Whiteboard   { return c.wb }
func (c *Client) Messageboard() *messageboard.Messageboard { return c.mb }
func (c *Client) Waiter() *waiter.Waiter               { return c.w }
func (c *Client) Caller() *unified.Caller              { return c.caller }
func (c *Client) Scheduler() *sched.Scheduler          { return c.sched }
func (c *Client) Modules() *modregistry.Set            { return c.modules }
func (c *Client) AccountName() string                  { return c.info.AccountName }
func (c *Client) SteamDataDir() string                  { return c.steamDataDir }
func (c *Client) HTTPClient() *http.Client              { return c.httpClient }

// PICSResponse wraps a CMsgClientPICSProductInfoResponse with the
// jobid_target its header carried, so modules/packagedata can match it back
// to the CMsgClientPICSProductInfoRequest it allocated a jobid_source for —
// PICS requests aren't routed through unified.Caller (that's reserved for
// ServiceMethod* RPC traffic), so this is its own raw-wire job correlation.
type PICSResponse struct {
	Msg         *protocol.CMsgClientPICSProductInfoResponse
	JobIDTarget uint64
}

// SteamID returns the logged-in account's SteamID, or 0 before logon
// completes.
func (c *Client) SteamID() steamid.SteamID {
	v, ok := whiteboard.Has[clientstate.SteamID](c.wb)
	if !ok {
		return 0
	}
	return steamid.SteamID(v)
}

// registerHandlers wires the dispatch table entries every Client needs
// regardless of which feature modules are registered (§4.8's "known
// message types" minimum set): the logon response (monitored, since §4.10's
// state machine must fully process it before any other handler sees later
// traffic) plus the feature-agnostic notification/license pushes feature
// modules subscribe to via mb. ServiceMethodResponse/ServiceMethod never
// reach this table at all — readLoop routes those straight to
// unified.Caller, since HandleResponse/HandlePush need the raw
// *wire.Message to read jobid_target/target_job_name, not a dispatch-
// decoded body.
func (c *Client) registerHandlers() {
	c.dispatcher.SetHeaderHook(func(emsg wire.EMsg, msg *wire.Message) {
		if msg.Kind != wire.HeaderProtoBuf || msg.Proto == nil || msg.Proto.Proto == nil {
			return
		}
		hdr := msg.Proto.Proto
		if hdr.Steamid != nil && *hdr.Steamid != 0 {
			whiteboard.Set(c.wb, clientstate.SteamID(steamid.SteamID(*hdr.Steamid)))
		}
		if hdr.ClientSessionid != nil && *hdr.ClientSessionid != 0 {
			whiteboard.Set(c.wb, clientstate.SessionID(*hdr.ClientSessionid))
		}
	})

	dispatch.RegisterMonitored(c.dispatcher, wire.EMsgClientLogOnResponse,
		func() *protocol.CMsgClientLogonResponse { return &protocol.CMsgClientLogonResponse{} },
		func(mon dispatch.Monitored[*protocol.CMsgClientLogonResponse]) int {
			return messageboard.Send(c.mb, mon)
		})

	dispatch.Register(c.dispatcher, wire.EMsgClientLicenseList,
		func() *protocol.CMsgClientLicenseList { return &protocol.CMsgClientLicenseList{} },
		func(m *protocol.CMsgClientLicenseList) int { return messageboard.Send(c.mb, m) })

	dispatch.Register(c.dispatcher, wire.EMsgClientUserNotifications,
		func() *protocol.CMsgClientUserNotifications { return &protocol.CMsgClientUserNotifications{} },
		func(m *protocol.CMsgClientUserNotifications) int { return messageboard.Send(c.mb, m) })

	dispatch.Register(c.dispatcher, wire.EMsgClientItemAnnouncements,
		func() *protocol.CMsgClientItemAnnouncements { return &protocol.CMsgClientItemAnnouncements{} },
		func(m *protocol.CMsgClientItemAnnouncements) int { return messageboard.Send(c.mb, m) })

	dispatch.RegisterWithHeader(c.dispatcher, wire.EMsgClientPICSProductInfoResponse,
		func() *protocol.CMsgClientPICSProductInfoResponse { return &protocol.CMsgClientPICSProductInfoResponse{} },
		func(m *protocol.CMsgClientPICSProductInfoResponse, hdr *wire.ProtoBufHeader) int {
			var jobTarget uint64
			if hdr != nil && hdr.Proto != nil {
				jobTarget = hdr.Proto.GetJobidTarget()
			}
			return messageboard.Send(c.mb, PICSResponse{Msg: m, JobIDTarget: jobTarget})
		})

	dispatch.Register(c.dispatcher, wire.EMsgClientLoggedOff,
		func() *protocol.CMsgClientLoggedOff { return &protocol.CMsgClientLoggedOff{} },
		func(m *protocol.CMsgClientLoggedOff) int {
			whiteboard.Set(c.wb, clientstate.Status(clientstate.StatusLoggedOut))
			whiteboard.Set(c.wb, clientstate.QuitMode(clientstate.QuitRestart))
			return messageboard.Send(c.mb, m)
		})
}

// SendMessage implements unified.Sender and login's send interface: it
// stamps the account's SteamID/SessionID onto the outgoing header once
// known, encodes the message, and writes it to the connection.
func (c *Client) SendMessage(ctx context.Context, m *wire.Message) error {
	c.stampHeader(m)

	encoded, err := m.Encode()
	if err != nil {
		return fmt.Errorf("client: encode %s: %w", m.Type, err)
	}

	c.sendMu.Lock()
	err = c.conn.Write(ctx, encoded)
	c.sendMu.Unlock()
	if err != nil {
		return fmt.Errorf("client: write %s: %w", m.Type, err)
	}

	whiteboard.Set(c.wb, clientstate.LastMessageSent(time.Now()))
	return nil
}

func (c *Client) stampHeader(m *wire.Message) {
	sid, haveSID := whiteboard.Has[clientstate.SteamID](c.wb)
	sess, haveSess := whiteboard.Has[clientstate.SessionID](c.wb)

	switch m.Kind {
	case wire.HeaderExtended:
		if m.Extended == nil {
			m.Extended = &wire.ExtendedHeader{}
		}
		if haveSID {
			m.Extended.SteamID = uint64(steamid.SteamID(sid))
		}
		if haveSess {
			m.Extended.SessionID = int32(sess)
		}
	case wire.HeaderProtoBuf:
		if m.Proto == nil {
			m.Proto = &wire.ProtoBufHeader{}
		}
		if m.Proto.Proto == nil {
			m.Proto.Proto = &protocol.CMsgProtoBufHeader{}
		}
		if haveSID {
			v := uint64(steamid.SteamID(sid))
			m.Proto.Proto.Steamid = &v
		}
		if haveSess {
			v := int32(sess)
			m.Proto.Proto.ClientSessionid = &v
		}
	}
}

// readLoop is the long-running task that feeds every inbound packet
// through the dispatch table, and additionally routes
// ServiceMethod[Response] traffic to the unified.Caller before dispatch
// (since those two EMsgs carry job correlation in the proto header, not a
// typed body dispatch.Register can decode generically).
func (c *Client) readLoop(ctx context.Context) error {
	// Losing the connection ends the Client's whole lifecycle, not just this
	// task: cancel the scheduler so heartbeat/module tasks stop and Run's
	// sched.Wait() unblocks instead of hanging on a dead connection forever.
	defer c.sched.Cancel()

	for {
		raw, err := c.conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return sched.ErrOperationCancelled
			}
			return fmt.Errorf("client: read: %w", err)
		}
		if len(raw) == 0 {
			c.logger.Info("client: connection closed by peer")
			whiteboard.Set(c.wb, clientstate.Status(clientstate.StatusLoggedOut))
			whiteboard.Set(c.wb, clientstate.QuitMode(clientstate.QuitRestart))
			return nil
		}

		emsg, isProto, err := wire.PeekMessageType(raw)
		if err == nil && isProto && (emsg == wire.EMsgServiceMethodResponse || emsg == wire.EMsgServiceMethod) {
			msg, decErr := wire.Decode(raw, wire.HeaderProtoBuf)
			if decErr != nil {
				c.logger.Warn("client: decode unified message failed", "error", decErr)
				continue
			}
			if emsg == wire.EMsgServiceMethodResponse {
				c.caller.HandleResponse(msg)
			} else {
				if err := c.caller.HandlePush(msg); err != nil {
					c.logger.Warn("client: handle push failed", "error", err)
				}
			}
			continue
		}

		if err := c.dispatcher.Handle(raw); err != nil {
			c.logger.Warn("client: dispatch failed", "error", err)
		}
	}
}

// Ready is closed once login succeeds and every module's Init has run.
func (c *Client) Ready() <-chan struct{} { return c.ready }

func (c *Client) markReady() {
	c.readyOnce.Do(func() { close(c.ready) })
}

// Run drives this Client's full lifecycle on the calling goroutine until
// the scheduler's tasks all finish or the context is cancelled (§4.12
// steps 2-6: spawn read loop, log in, init+run every module, wait).
func (c *Client) Run(ctx context.Context) error {
	c.sched.LaunchTask("readLoop", c.readLoop)

	c.caller.SetAuthed(false)
	if err := c.login.Login(ctx, c.info.AccountName, c.info.Password); err != nil {
		c.sched.Cancel()
		c.sched.Wait()
		return fmt.Errorf("client: login: %w", err)
	}
	c.caller.SetAuthed(true)

	c.sched.LaunchTask("heartbeat", c.heartbeatLoop)

	for _, mod := range c.modules.All() {
		if err := mod.Init(c); err != nil {
			c.sched.Cancel()
			c.sched.Wait()
			return fmt.Errorf("client: module init: %w", err)
		}
	}
	for _, mod := range c.modules.All() {
		mod := mod
		c.sched.LaunchTask(moduleTaskName(mod), func(ctx context.Context) error {
			return mod.Run(c)
		})
	}

	c.markReady()
	c.logger.Info("client: ready")

	c.sched.Wait()

	quitMode := whiteboard.GetOr(c.wb, clientstate.QuitMode(clientstate.QuitNone))
	if quitMode == clientstate.QuitRestart {
		return errRestart
	}
	return nil
}

var errRestart = errors.New("client: restart requested")

// ErrRestart reports whether err signals that the Client should be
// relaunched after a backoff (§4.12 step 6's Restart disposition).
func ErrRestart(err error) bool { return errors.Is(err, errRestart) }

func moduleTaskName(mod modregistry.Module) string {
	return fmt.Sprintf("%T", mod)
}
