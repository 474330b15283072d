package login

// Store is the subset of the per-account DataFile (C13) the login state
// machine needs: the cached refresh token, any previously issued guard
// data blob, and an optional TOTP shared secret for unattended DeviceCode
// submission. client.Client's DataFile-backed implementation satisfies this;
// tests can supply an in-memory stub.
type Store interface {
	RefreshToken() string
	SetRefreshToken(token string)
	ClearRefreshToken()

	GuardData() string
	SetGuardData(data string)

	SharedSecret() string
}
