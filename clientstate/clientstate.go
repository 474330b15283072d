// Package clientstate defines the Whiteboard value types shared between the
// login state machine (C10), the Client runtime (C12), and feature modules
// (C14). Giving each published value its own named type is what makes
// Whiteboard's type-indexed store (§4.4) work as a typed pub-sub slot map
// instead of a stringly-keyed one; this package exists purely so login and
// client can publish/observe the same types without importing each other.
package clientstate

import (
	"time"

	"github.com/k64z/steamfleet/steamid"
)

// SteamID is the account's SteamID, published once logon succeeds.
type SteamID steamid.SteamID

// SessionID is the CM session ID assigned at logon.
type SessionID int32

// CellID is the data-center cell the current CM server belongs to.
type CellID uint32

// RefreshToken is the long-lived token used for subsequent Logon(with
// token) attempts (§4.10 "Logon packet ... access_token = refreshToken").
type RefreshToken string

// HeartbeatInterval is how long the heartbeat loop (C11) waits for
// inactivity before sending CMsgClientHeartBeat.
type HeartbeatInterval time.Duration

// LastMessageSent is updated by the connection send path every time a
// message goes out; the heartbeat loop (§4.11) watches it instead of a
// fixed ticker.
type LastMessageSent time.Time

// Status is the login/session lifecycle phase (§4.10, §4.12).
type Status int

const (
	StatusLoggedOut Status = iota
	StatusLoggingIn
	StatusLoggedIn
)

func (s Status) String() string {
	switch s {
	case StatusLoggedOut:
		return "LoggedOut"
	case StatusLoggingIn:
		return "LoggingIn"
	case StatusLoggedIn:
		return "LoggedIn"
	default:
		return "Unknown"
	}
}

// QuitMode is the disposition a Client's shutdown carries (§4.12 step 6).
type QuitMode int

const (
	QuitNone QuitMode = iota
	QuitQuit
	QuitRestart
)
