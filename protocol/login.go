package protocol

import "google.golang.org/protobuf/encoding/protowire"

// CMsgClientHello is sent before an interactive credentials logon (§9 open
// question: "the source sends Hello only when starting an interactive
// credentials flow").
type CMsgClientHello struct {
	ProtocolVersion *uint32
}

func (m *CMsgClientHello) GetProtocolVersion() uint32 {
	if m == nil || m.ProtocolVersion == nil {
		return 0
	}
	return *m.ProtocolVersion
}

func (m *CMsgClientHello) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, m.ProtocolVersion)
	return b, nil
}

func (m *CMsgClientHello) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint32(&m.ProtocolVersion),
	})
}

// CMsgClientLogon is the packet that ends the login state machine (§4.10
// "Logon packet").
type CMsgClientLogon struct {
	ProtocolVersion           *uint32
	CellId                    *uint32
	ClientLanguage            *string
	ClientOsType              *uint32
	ShouldRememberPassword    *bool
	MachineId                 []byte
	AccountName               *string
	AccessToken               *string
	EresultSentryfile         *int32
	MachineName               *string
	SupportsRateLimitResponse *bool
	ObfuscatedPrivateIp       *uint32
}

func (m *CMsgClientLogon) GetAccountName() string {
	if m == nil || m.AccountName == nil {
		return ""
	}
	return *m.AccountName
}

func (m *CMsgClientLogon) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, m.ProtocolVersion)
	b = appendUint32(b, 2, m.CellId)
	b = appendString(b, 3, m.ClientLanguage)
	b = appendUint32(b, 4, m.ClientOsType)
	b = appendBool(b, 5, m.ShouldRememberPassword)
	b = appendBytes(b, 6, m.MachineId)
	b = appendString(b, 7, m.AccountName)
	b = appendString(b, 8, m.AccessToken)
	b = appendInt32(b, 9, m.EresultSentryfile)
	b = appendString(b, 10, m.MachineName)
	b = appendBool(b, 11, m.SupportsRateLimitResponse)
	b = appendUint32(b, 12, m.ObfuscatedPrivateIp)
	return b, nil
}

func (m *CMsgClientLogon) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1:  setUint32(&m.ProtocolVersion),
		2:  setUint32(&m.CellId),
		3:  setString(&m.ClientLanguage),
		4:  setUint32(&m.ClientOsType),
		5:  setBool(&m.ShouldRememberPassword),
		6:  setBytes(&m.MachineId),
		7:  setString(&m.AccountName),
		8:  setString(&m.AccessToken),
		9:  setInt32(&m.EresultSentryfile),
		10: setString(&m.MachineName),
		11: setBool(&m.SupportsRateLimitResponse),
		12: setUint32(&m.ObfuscatedPrivateIp),
	})
}

// CMsgClientLogonResponse carries the fields §4.10 "Logon response handling"
// reads onto the Whiteboard.
type CMsgClientLogonResponse struct {
	Eresult                         *int32
	OutOfGameHeartbeatSeconds       *int32
	LegacyOutOfGameHeartbeatSeconds *int32
	CellId                          *uint32
	ClientSuppliedSteamid           *uint64
}

func (m *CMsgClientLogonResponse) GetEresult() int32 {
	if m == nil || m.Eresult == nil {
		return 0
	}
	return *m.Eresult
}

func (m *CMsgClientLogonResponse) GetLegacyOutOfGameHeartbeatSeconds() int32 {
	if m == nil || m.LegacyOutOfGameHeartbeatSeconds == nil {
		return 0
	}
	return *m.LegacyOutOfGameHeartbeatSeconds
}

func (m *CMsgClientLogonResponse) GetCellId() uint32 {
	if m == nil || m.CellId == nil {
		return 0
	}
	return *m.CellId
}

func (m *CMsgClientLogonResponse) Marshal() ([]byte, error) {
	var b []byte
	b = appendInt32(b, 1, m.Eresult)
	b = appendInt32(b, 2, m.OutOfGameHeartbeatSeconds)
	b = appendInt32(b, 3, m.LegacyOutOfGameHeartbeatSeconds)
	b = appendUint32(b, 4, m.CellId)
	b = appendUint64(b, 5, m.ClientSuppliedSteamid)
	return b, nil
}

func (m *CMsgClientLogonResponse) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setInt32(&m.Eresult),
		2: setInt32(&m.OutOfGameHeartbeatSeconds),
		3: setInt32(&m.LegacyOutOfGameHeartbeatSeconds),
		4: setUint32(&m.CellId),
		5: setUint64(&m.ClientSuppliedSteamid),
	})
}

// CMsgClientHeartBeat (§4.11).
type CMsgClientHeartBeat struct {
	SendReply *bool
}

func (m *CMsgClientHeartBeat) Marshal() ([]byte, error) {
	var b []byte
	b = appendBool(b, 1, m.SendReply)
	return b, nil
}

func (m *CMsgClientHeartBeat) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setBool(&m.SendReply),
	})
}

// CMsgClientLoggedOff is the Simple-header message the server sends when it
// drops the connection server-side (§7 transport errors map here).
type CMsgClientLoggedOff struct {
	Eresult *int32
}

func (m *CMsgClientLoggedOff) GetEresult() int32 {
	if m == nil || m.Eresult == nil {
		return 0
	}
	return *m.Eresult
}

func (m *CMsgClientLoggedOff) Marshal() ([]byte, error) {
	var b []byte
	b = appendInt32(b, 1, m.Eresult)
	return b, nil
}

func (m *CMsgClientLoggedOff) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setInt32(&m.Eresult),
	})
}
