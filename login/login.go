// Package login implements the credential/refresh-token authentication
// state machine described in §4.10 ("Login state machine (C10)"), grounded
// on steamsession.Session's StartWithCredentials/SubmitSteamGuardCode/
// PollAuthSessionStatus sequence but rerouted: steamsession drives these
// calls over direct HTTPS via steamapi.API, while this package sends the
// identical request/response pairs as unified-messaging calls (C9) over the
// CM connection, per §1's scoping of the HTTP client to feature modules
// only.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/k64z/steamfleet/clientstate"
	"github.com/k64z/steamfleet/dispatch"
	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/protocol"
	"github.com/k64z/steamfleet/steamtotp"
	"github.com/k64z/steamfleet/unified"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/whiteboard"
	"github.com/k64z/steamfleet/wire"
)

// ProtoVersion is the CM protocol version advertised in ClientHello/Logon.
const ProtoVersion = 65580

// ErrUnsupportedConfirmations is raised when none of the confirmation types
// Steam allows for this account are ones this client can satisfy (§4.10
// "Confirmation type selection").
var ErrUnsupportedConfirmations = errors.New("login: no supported confirmation type offered")

// State is a node in the login state machine (§4.10 diagram).
type State int

const (
	StateLoggedOut State = iota
	StateLoggingIn
	StateHelloSent
	StateRSAFetched
	StateCredentialsSubmitted
	StateAwaitingConfirmation
	StatePolling
	StateLoggedIn
	StateRestart
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "LoggedOut"
	case StateLoggingIn:
		return "LoggingIn"
	case StateHelloSent:
		return "HelloSent"
	case StateRSAFetched:
		return "RSAFetched"
	case StateCredentialsSubmitted:
		return "CredentialsSubmitted"
	case StateAwaitingConfirmation:
		return "AwaitingConfirmation"
	case StatePolling:
		return "Polling"
	case StateLoggedIn:
		return "LoggedIn"
	case StateRestart:
		return "Restart"
	default:
		return "Unknown"
	}
}

// CodeProvider asks the surrounding application for an out-of-band
// confirmation code (email or device) when one is required.
type CodeProvider func(ctx context.Context, guardType protocol.EAuthSessionGuardType) (string, error)

type config struct {
	codeProvider CodeProvider
	machineName  string
	osType       uint32
}

// Option configures a Machine.
type Option func(*config)

// WithCodeProvider installs the callback used to obtain an EmailCode, or a
// DeviceCode when no shared secret is on file to generate one.
func WithCodeProvider(fn CodeProvider) Option {
	return func(c *config) { c.codeProvider = fn }
}

// WithMachineName sets the device_friendly_name / machine_name fields sent
// with the credentials and logon requests.
func WithMachineName(name string) Option {
	return func(c *config) { c.machineName = name }
}

// Machine drives one account's login state machine over a single CM
// connection.
type Machine struct {
	sender unified.Sender
	caller *unified.Caller
	wb     *whiteboard.Whiteboard
	mb     *messageboard.Messageboard
	w      *waiter.Waiter
	store  Store
	logger *slog.Logger
	cfg    config

	state State
}

// New creates a Machine. sender is used for the raw ClientHello/ClientLogon
// messages; caller is used for every Authentication.* unified-messaging
// call (§4.10's whole RSA/credentials/confirmation/poll sequence).
func New(sender unified.Sender, caller *unified.Caller, wb *whiteboard.Whiteboard, mb *messageboard.Messageboard, w *waiter.Waiter, store Store, logger *slog.Logger, opts ...Option) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := config{machineName: "steamfleet", osType: 20 /* EOSType Windows 11 */}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Machine{
		sender: sender,
		caller: caller,
		wb:     wb,
		mb:     mb,
		w:      w,
		store:  store,
		logger: logger,
		cfg:    cfg,
		state:  StateLoggedOut,
	}
}

// State reports the current node in the state machine.
func (m *Machine) State() State { return m.state }

func (m *Machine) setState(s State) {
	m.state = s
	m.logger.Debug("login: state transition", "state", s.String())
}

// Login runs the full §4.10 diagram for accountName: if a refresh token is
// cached in Store, it attempts Logon(with token) directly; otherwise it
// drives the full credentials -> RSA -> confirmation -> poll sequence
// before the final Logon.
func (m *Machine) Login(ctx context.Context, accountName, password string) error {
	m.setState(StateLoggingIn)

	if token := m.store.RefreshToken(); token != "" {
		if err := m.logon(ctx, accountName, token); err == nil {
			return nil
		} else {
			m.logger.Warn("login: cached refresh token rejected, falling back to credentials", "err", err)
		}
	}

	if err := m.sendHello(ctx); err != nil {
		return fmt.Errorf("login: hello: %w", err)
	}
	m.setState(StateHelloSent)

	rsaMod, rsaExp, timestamp, err := m.fetchRSAKey(ctx, accountName)
	if err != nil {
		return fmt.Errorf("login: fetch RSA key: %w", err)
	}
	m.setState(StateRSAFetched)

	encryptedPassword, err := encryptPassword(password, rsaMod, rsaExp)
	if err != nil {
		return fmt.Errorf("login: encrypt password: %w", err)
	}

	clientID, requestID, interval, steamID, weakToken, confirmations, err := m.beginAuthSession(ctx, accountName, encryptedPassword, timestamp)
	if err != nil {
		return fmt.Errorf("login: begin auth session: %w", err)
	}
	_ = steamID
	_ = weakToken
	m.setState(StateCredentialsSubmitted)

	guardType, err := pickConfirmation(confirmations)
	if err != nil {
		return err
	}

	if guardType != protocol.EAuthSessionGuardTypeNone {
		m.setState(StateAwaitingConfirmation)
		if err := m.submitConfirmation(ctx, clientID, steamID, guardType); err != nil {
			return fmt.Errorf("login: submit confirmation: %w", err)
		}
	}

	m.setState(StatePolling)
	refreshToken, guardData, err := m.poll(ctx, clientID, requestID, interval)
	if err != nil {
		return fmt.Errorf("login: poll: %w", err)
	}
	if guardData != "" {
		m.store.SetGuardData(guardData)
	}
	m.store.SetRefreshToken(refreshToken)

	return m.logon(ctx, accountName, refreshToken)
}

func (m *Machine) sendHello(ctx context.Context) error {
	hello := &protocol.CMsgClientHello{ProtocolVersion: protocol.Uint32(ProtoVersion)}
	body, err := hello.Marshal()
	if err != nil {
		return err
	}
	return m.sender.SendMessage(ctx, &wire.Message{
		Type:  wire.EMsgClientHello,
		Kind:  wire.HeaderProtoBuf,
		Proto: &wire.ProtoBufHeader{Proto: &protocol.CMsgProtoBufHeader{}},
		Body:  body,
	})
}

func (m *Machine) fetchRSAKey(ctx context.Context, accountName string) (modHex string, exp int64, timestamp uint64, err error) {
	req := &protocol.CAuthentication_GetPasswordRSAPublicKey_Request{AccountName: &accountName}
	body, err := req.Marshal()
	if err != nil {
		return "", 0, 0, err
	}
	resp, err := m.caller.Call(ctx, "Authentication.GetPasswordRSAPublicKey#1", body)
	if err != nil {
		return "", 0, 0, err
	}
	var rsaResp protocol.CAuthentication_GetPasswordRSAPublicKey_Response
	if err := rsaResp.Unmarshal(resp.Body); err != nil {
		return "", 0, 0, fmt.Errorf("unmarshal RSA response: %w", err)
	}
	exponent := int64(65537)
	if rsaResp.PublickeyExp != nil {
		fmt.Sscanf(*rsaResp.PublickeyExp, "%x", &exponent)
	}
	return *rsaResp.PublickeyMod, exponent, rsaResp.GetTimestamp(), nil
}

func (m *Machine) beginAuthSession(ctx context.Context, accountName, encryptedPassword string, timestamp uint64) (
	clientID uint64, requestID []byte, interval time.Duration, steamID uint64, weakToken string,
	confirmations []*protocol.CAuthentication_AllowedConfirmation, err error) {

	persistence := protocol.ESessionPersistencePersistent
	platform := protocol.EAuthTokenPlatformTypeSteamClient
	guardData := m.store.GuardData()

	req := &protocol.CAuthentication_BeginAuthSessionViaCredentials_Request{
		AccountName:         &accountName,
		EncryptedPassword:   &encryptedPassword,
		EncryptionTimestamp: &timestamp,
		RememberLogin:       protocol.Bool(true),
		Persistence:         &persistence,
		WebsiteId:           protocol.String("Client"),
		DeviceDetails: &protocol.CAuthentication_DeviceDetails{
			DeviceFriendlyName: &m.cfg.machineName,
			PlatformType:       &platform,
		},
		Language: protocol.Uint32(0),
	}
	if guardData != "" {
		req.GuardData = &guardData
	}

	body, err := req.Marshal()
	if err != nil {
		return
	}
	resp, callErr := m.caller.Call(ctx, "Authentication.BeginAuthSessionViaCredentials#1", body)
	if callErr != nil {
		err = callErr
		return
	}
	var sessResp protocol.CAuthentication_BeginAuthSessionViaCredentials_Response
	if uErr := sessResp.Unmarshal(resp.Body); uErr != nil {
		err = fmt.Errorf("unmarshal BeginAuthSession response: %w", uErr)
		return
	}

	clientID = *sessResp.ClientId
	requestID = sessResp.RequestId
	if sessResp.Interval != nil {
		interval = time.Duration(*sessResp.Interval * float32(time.Second))
	} else {
		interval = 5 * time.Second
	}
	if sessResp.Steamid != nil {
		steamID = *sessResp.Steamid
	}
	if sessResp.WeakToken != nil {
		weakToken = *sessResp.WeakToken
	}
	confirmations = sessResp.AllowedConfirmations
	return
}

// pickConfirmation implements §4.10's strict preference order:
// None > DeviceConfirmation > DeviceCode > EmailCode.
func pickConfirmation(allowed []*protocol.CAuthentication_AllowedConfirmation) (protocol.EAuthSessionGuardType, error) {
	order := []protocol.EAuthSessionGuardType{
		protocol.EAuthSessionGuardTypeNone,
		protocol.EAuthSessionGuardTypeDeviceConfirmation,
		protocol.EAuthSessionGuardTypeDeviceCode,
		protocol.EAuthSessionGuardTypeEmailCode,
	}
	offered := make(map[protocol.EAuthSessionGuardType]bool, len(allowed))
	for _, a := range allowed {
		offered[a.GetConfirmationType()] = true
	}
	for _, guardType := range order {
		if offered[guardType] {
			return guardType, nil
		}
	}
	return protocol.EAuthSessionGuardTypeUnknown, ErrUnsupportedConfirmations
}

func (m *Machine) submitConfirmation(ctx context.Context, clientID, steamID uint64, guardType protocol.EAuthSessionGuardType) error {
	if guardType == protocol.EAuthSessionGuardTypeDeviceConfirmation {
		// Mobile-app confirmation: nothing to submit, only to poll for.
		return nil
	}

	code, err := m.obtainCode(ctx, guardType)
	if err != nil {
		return err
	}

	req := &protocol.CAuthentication_UpdateAuthSessionWithSteamGuardCode_Request{
		ClientId: &clientID,
		Steamid:  &steamID,
		Code:     &code,
		CodeType: &guardType,
	}
	body, err := req.Marshal()
	if err != nil {
		return err
	}

	_, err = m.caller.Call(ctx, "Authentication.UpdateAuthSessionWithSteamGuardCode#1", body)
	if err == nil {
		return nil
	}

	var uerr *unified.UnifiedError
	if errors.As(err, &uerr) {
		switch {
		case guardType == protocol.EAuthSessionGuardTypeEmailCode && uerr.EResult == protocol.EResultInvalidLoginAuthCode,
			guardType == protocol.EAuthSessionGuardTypeDeviceCode && uerr.EResult == protocol.EResultTwoFactorCodeMismatch:
			// §4.10 "a response-level mismatch clears the cached code and
			// re-prompts"; the cache lives in the caller-supplied
			// CodeProvider, so simply retrying once is this layer's part.
			code, err = m.obtainCode(ctx, guardType)
			if err != nil {
				return err
			}
			req.Code = &code
			body, err = req.Marshal()
			if err != nil {
				return err
			}
			_, err = m.caller.Call(ctx, "Authentication.UpdateAuthSessionWithSteamGuardCode#1", body)
			return err
		}
	}
	return err
}

func (m *Machine) obtainCode(ctx context.Context, guardType protocol.EAuthSessionGuardType) (string, error) {
	if guardType == protocol.EAuthSessionGuardTypeDeviceCode {
		if secret := m.store.SharedSecret(); secret != "" {
			return steamtotp.GenerateAuthCode(secret, 0)
		}
	}
	if m.cfg.codeProvider == nil {
		return "", fmt.Errorf("login: %s requires a code but no CodeProvider is configured", guardType)
	}
	return m.cfg.codeProvider(ctx, guardType)
}

func (m *Machine) poll(ctx context.Context, clientID uint64, requestID []byte, interval time.Duration) (refreshToken, guardData string, err error) {
	for {
		req := &protocol.CAuthentication_PollAuthSessionStatus_Request{ClientId: &clientID, RequestId: requestID}
		body, mErr := req.Marshal()
		if mErr != nil {
			return "", "", mErr
		}

		resp, callErr := m.caller.Call(ctx, "Authentication.PollAuthSessionStatus#1", body)
		if callErr != nil {
			select {
			case <-ctx.Done():
				return "", "", ctx.Err()
			case <-time.After(interval):
				continue
			}
		}

		var pollResp protocol.CAuthentication_PollAuthSessionStatus_Response
		if uErr := pollResp.Unmarshal(resp.Body); uErr != nil {
			return "", "", fmt.Errorf("unmarshal poll response: %w", uErr)
		}
		if pollResp.GetNewClientId() != 0 {
			clientID = pollResp.GetNewClientId()
		}
		if pollResp.GetNewGuardData() != "" {
			guardData = pollResp.GetNewGuardData()
		}
		if pollResp.GetRefreshToken() != "" {
			return pollResp.GetRefreshToken(), guardData, nil
		}

		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(interval):
		}
	}
}

// logon builds and sends CMsgClientLogon with the given access token and
// waits for CMsgClientLogonResponse, applying §4.10's response handling
// rules.
func (m *Machine) logon(ctx context.Context, accountName, accessToken string) error {
	obs := messageboard.CreateObserver[dispatch.Monitored[*protocol.CMsgClientLogonResponse]](m.mb, m.w)
	defer obs.Drop()

	lang := "english"
	logon := &protocol.CMsgClientLogon{
		ProtocolVersion:           protocol.Uint32(ProtoVersion),
		CellId:                    protocol.Uint32(0),
		ClientLanguage:            &lang,
		ClientOsType:              &m.cfg.osType,
		ShouldRememberPassword:    protocol.Bool(true),
		MachineId:                 machineIDBlob(),
		AccountName:               &accountName,
		AccessToken:               &accessToken,
		EresultSentryfile:         protocol.Int32(9), // EResult.FileNotFound
		MachineName:               &m.cfg.machineName,
		SupportsRateLimitResponse: protocol.Bool(true),
	}
	body, err := logon.Marshal()
	if err != nil {
		return err
	}
	if err := m.sender.SendMessage(ctx, &wire.Message{
		Type:  wire.EMsgClientLogon,
		Kind:  wire.HeaderProtoBuf,
		Proto: &wire.ProtoBufHeader{Proto: &protocol.CMsgProtoBufHeader{}},
		Body:  body,
	}); err != nil {
		return fmt.Errorf("send ClientLogon: %w", err)
	}

	for {
		result := m.w.Wait(ctx, 30*time.Second)
		if result == waiter.WaitCancelled {
			return ctx.Err()
		}
		if result == waiter.WaitTimedOut {
			return fmt.Errorf("login: timed out waiting for logon response")
		}
		mon, ok := obs.Fetch()
		if !ok {
			continue
		}
		resp := mon.Value
		mon.Release()
		return m.handleLogonResponse(accountName, resp)
	}
}

func (m *Machine) handleLogonResponse(accountName string, resp *protocol.CMsgClientLogonResponse) error {
	eresult := protocol.EResult(resp.GetEresult())
	switch eresult {
	case protocol.EResultOK:
		whiteboard.Set(m.wb, clientstate.CellID(resp.GetCellId()))
		whiteboard.Set(m.wb, clientstate.RefreshToken(m.store.RefreshToken()))
		whiteboard.Set(m.wb, clientstate.HeartbeatInterval(time.Duration(resp.GetLegacyOutOfGameHeartbeatSeconds())*time.Second))
		whiteboard.Set(m.wb, clientstate.Status(clientstate.StatusLoggedIn))
		m.setState(StateLoggedIn)
		m.logger.Info("login: logged in", "account", accountName)
		return nil

	case protocol.EResultInvalidPassword, protocol.EResultInvalidSignature, protocol.EResultExpired:
		m.store.ClearRefreshToken()
		m.setState(StateRestart)
		return fmt.Errorf("login: logon rejected (eresult=%d), discarding refresh token", eresult)

	case protocol.EResultTryAnotherCM, protocol.EResultServiceUnavailable:
		m.setState(StateRestart)
		return fmt.Errorf("login: logon failed (eresult=%d), restart with rotated endpoint", eresult)

	default:
		m.setState(StateRestart)
		return fmt.Errorf("login: logon failed: eresult=%d", eresult)
	}
}

// machineID is generated once per process and reused by every logon.
var machineID = uuid.NewString()

// machineIDBlob builds the binary machine-id blob CMsgClientLogon carries
// (§4.10 "machine-id serialized blob"). SteamKit's real encoding is a
// nested binary KeyValue blob; this is a simplified rendition carrying the
// three identifying strings under their real key names, with a process-
// stable UUID as the value so repeated logons from the same process present
// a consistent identity (§9 domain-stack commitment: google/uuid backs this
// blob).
func machineIDBlob() []byte {
	id := machineID
	var buf []byte
	buf = append(buf, 0x01) // MessageObject marker, string-valued entries follow
	buf = appendKV(buf, "BB3", id)
	buf = appendKV(buf, "FF2", id)
	buf = appendKV(buf, "3B3", id)
	buf = append(buf, 0x08) // end of object
	return buf
}

func appendKV(buf []byte, key, value string) []byte {
	buf = append(buf, 0x01) // string type
	buf = append(buf, []byte(key)...)
	buf = append(buf, 0x00)
	buf = append(buf, []byte(value)...)
	buf = append(buf, 0x00)
	return buf
}
