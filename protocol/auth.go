package protocol

import "google.golang.org/protobuf/encoding/protowire"

// EAuthSessionGuardType enumerates the confirmation mechanisms Steam may
// require during credential login (§4.10 "Confirmation type selection").
type EAuthSessionGuardType int32

const (
	EAuthSessionGuardTypeUnknown             EAuthSessionGuardType = 0
	EAuthSessionGuardTypeNone                EAuthSessionGuardType = 1
	EAuthSessionGuardTypeEmailCode           EAuthSessionGuardType = 2
	EAuthSessionGuardTypeDeviceCode          EAuthSessionGuardType = 3
	EAuthSessionGuardTypeDeviceConfirmation  EAuthSessionGuardType = 4
	EAuthSessionGuardTypeEmailConfirmation   EAuthSessionGuardType = 5
	EAuthSessionGuardTypeMachineToken        EAuthSessionGuardType = 6
	EAuthSessionGuardTypeLegacyMachineAuth   EAuthSessionGuardType = 7
)

// EAuthTokenPlatformType selects the kind of client requesting a token.
type EAuthTokenPlatformType int32

const (
	EAuthTokenPlatformTypeUnknown     EAuthTokenPlatformType = 0
	EAuthTokenPlatformTypeSteamClient EAuthTokenPlatformType = 1
	EAuthTokenPlatformTypeWebBrowser  EAuthTokenPlatformType = 2
	EAuthTokenPlatformTypeMobileApp   EAuthTokenPlatformType = 3
)

// ESessionPersistence selects whether a refresh token survives past the
// current session.
type ESessionPersistence int32

const (
	ESessionPersistenceInvalid     ESessionPersistence = -1
	ESessionPersistenceEphemeral   ESessionPersistence = 0
	ESessionPersistencePersistent  ESessionPersistence = 1
)

// EResult mirrors Steam's EResult enum (GLOSSARY: "ResultCode"). Only the
// values this module branches on are named; others still round-trip as
// plain int32s.
type EResult int32

const (
	EResultOK                    EResult = 1
	EResultInvalidPassword       EResult = 5
	EResultBusy                  EResult = 10
	EResultInvalidLoginAuthCode  EResult = 65
	EResultExpired               EResult = 27
	EResultTryAnotherCM          EResult = 48
	EResultServiceUnavailable    EResult = 20
	EResultTwoFactorCodeMismatch EResult = 88
	EResultInvalidSignature      EResult = 15
)

// CAuthentication_GetPasswordRSAPublicKey_Request/Response (§4.10 "RSA fetch").
type CAuthentication_GetPasswordRSAPublicKey_Request struct {
	AccountName *string
}

func (m *CAuthentication_GetPasswordRSAPublicKey_Request) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.AccountName)
	return b, nil
}

func (m *CAuthentication_GetPasswordRSAPublicKey_Request) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setString(&m.AccountName),
	})
}

type CAuthentication_GetPasswordRSAPublicKey_Response struct {
	PublickeyMod *string
	PublickeyExp *string
	Timestamp    *uint64
}

func (m *CAuthentication_GetPasswordRSAPublicKey_Response) GetTimestamp() uint64 {
	if m == nil || m.Timestamp == nil {
		return 0
	}
	return *m.Timestamp
}

func (m *CAuthentication_GetPasswordRSAPublicKey_Response) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.PublickeyMod)
	b = appendString(b, 2, m.PublickeyExp)
	b = appendUint64(b, 3, m.Timestamp)
	return b, nil
}

func (m *CAuthentication_GetPasswordRSAPublicKey_Response) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setString(&m.PublickeyMod),
		2: setString(&m.PublickeyExp),
		3: setUint64(&m.Timestamp),
	})
}

// CAuthentication_DeviceDetails (§4.10 "platform=SteamClient, OS type, machine name").
type CAuthentication_DeviceDetails struct {
	DeviceFriendlyName *string
	PlatformType       *EAuthTokenPlatformType
	OsType             *int32
}

func (m *CAuthentication_DeviceDetails) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.DeviceFriendlyName)
	if m.PlatformType != nil {
		v := int32(*m.PlatformType)
		b = appendInt32(b, 2, &v)
	}
	b = appendInt32(b, 3, m.OsType)
	return b, nil
}

func (m *CAuthentication_DeviceDetails) Unmarshal(data []byte) error {
	var platform *int32
	if err := unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setString(&m.DeviceFriendlyName),
		2: setInt32(&platform),
		3: setInt32(&m.OsType),
	}); err != nil {
		return err
	}
	if platform != nil {
		v := EAuthTokenPlatformType(*platform)
		m.PlatformType = &v
	}
	return nil
}

// CAuthentication_BeginAuthSessionViaCredentials_Request/Response.
type CAuthentication_BeginAuthSessionViaCredentials_Request struct {
	AccountName         *string
	EncryptedPassword   *string
	EncryptionTimestamp *uint64
	RememberLogin       *bool
	Persistence         *ESessionPersistence
	WebsiteId           *string
	DeviceDetails       *CAuthentication_DeviceDetails
	Language            *uint32
	GuardData           *string
}

func (m *CAuthentication_BeginAuthSessionViaCredentials_Request) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.AccountName)
	b = appendString(b, 2, m.EncryptedPassword)
	b = appendUint64(b, 3, m.EncryptionTimestamp)
	b = appendBool(b, 4, m.RememberLogin)
	if m.Persistence != nil {
		v := int32(*m.Persistence)
		b = appendInt32(b, 5, &v)
	}
	b = appendString(b, 6, m.WebsiteId)
	var err error
	b, err = appendMessage(b, 7, m.DeviceDetails)
	if err != nil {
		return nil, err
	}
	b = appendUint32(b, 8, m.Language)
	b = appendString(b, 9, m.GuardData)
	return b, nil
}

func (m *CAuthentication_BeginAuthSessionViaCredentials_Request) Unmarshal(data []byte) error {
	var persistence *int32
	m.DeviceDetails = &CAuthentication_DeviceDetails{}
	if err := unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setString(&m.AccountName),
		2: setString(&m.EncryptedPassword),
		3: setUint64(&m.EncryptionTimestamp),
		4: setBool(&m.RememberLogin),
		5: setInt32(&persistence),
		6: setString(&m.WebsiteId),
		7: setMessage(m.DeviceDetails.Unmarshal),
		8: setUint32(&m.Language),
		9: setString(&m.GuardData),
	}); err != nil {
		return err
	}
	if persistence != nil {
		v := ESessionPersistence(*persistence)
		m.Persistence = &v
	}
	return nil
}

type CAuthentication_AllowedConfirmation struct {
	ConfirmationType   *EAuthSessionGuardType
	AssociatedMessage  *string
}

func (m *CAuthentication_AllowedConfirmation) GetConfirmationType() EAuthSessionGuardType {
	if m == nil || m.ConfirmationType == nil {
		return EAuthSessionGuardTypeUnknown
	}
	return *m.ConfirmationType
}

func (m *CAuthentication_AllowedConfirmation) Marshal() ([]byte, error) {
	var b []byte
	if m.ConfirmationType != nil {
		v := int32(*m.ConfirmationType)
		b = appendInt32(b, 1, &v)
	}
	b = appendString(b, 2, m.AssociatedMessage)
	return b, nil
}

func (m *CAuthentication_AllowedConfirmation) Unmarshal(data []byte) error {
	var typ *int32
	if err := unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setInt32(&typ),
		2: setString(&m.AssociatedMessage),
	}); err != nil {
		return err
	}
	if typ != nil {
		v := EAuthSessionGuardType(*typ)
		m.ConfirmationType = &v
	}
	return nil
}

type CAuthentication_BeginAuthSessionViaCredentials_Response struct {
	ClientId             *uint64
	RequestId            []byte
	Interval             *float32
	AllowedConfirmations []*CAuthentication_AllowedConfirmation
	WeakToken            *string
	Steamid              *uint64
}

func (m *CAuthentication_BeginAuthSessionViaCredentials_Response) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint64(b, 1, m.ClientId)
	b = appendBytes(b, 2, m.RequestId)
	b = appendFloat32(b, 3, m.Interval)
	var err error
	b, err = appendRepeatedMessage(b, 4, m.AllowedConfirmations)
	if err != nil {
		return nil, err
	}
	b = appendString(b, 5, m.WeakToken)
	b = appendUint64(b, 6, m.Steamid)
	return b, nil
}

func (m *CAuthentication_BeginAuthSessionViaCredentials_Response) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint64(&m.ClientId),
		2: setBytes(&m.RequestId),
		3: setFloat32(&m.Interval),
		4: setRepeatedMessage(&m.AllowedConfirmations,
			func() *CAuthentication_AllowedConfirmation { return &CAuthentication_AllowedConfirmation{} },
			func(e *CAuthentication_AllowedConfirmation, b []byte) error { return e.Unmarshal(b) }),
		5: setString(&m.WeakToken),
		6: setUint64(&m.Steamid),
	})
}

// CAuthentication_UpdateAuthSessionWithSteamGuardCode_Request/Response
// (§4.10 "Code submission").
type CAuthentication_UpdateAuthSessionWithSteamGuardCode_Request struct {
	ClientId *uint64
	Steamid  *uint64
	Code     *string
	CodeType *EAuthSessionGuardType
}

func (m *CAuthentication_UpdateAuthSessionWithSteamGuardCode_Request) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint64(b, 1, m.ClientId)
	b = appendUint64(b, 2, m.Steamid)
	b = appendString(b, 3, m.Code)
	if m.CodeType != nil {
		v := int32(*m.CodeType)
		b = appendInt32(b, 4, &v)
	}
	return b, nil
}

func (m *CAuthentication_UpdateAuthSessionWithSteamGuardCode_Request) Unmarshal(data []byte) error {
	var typ *int32
	if err := unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint64(&m.ClientId),
		2: setUint64(&m.Steamid),
		3: setString(&m.Code),
		4: setInt32(&typ),
	}); err != nil {
		return err
	}
	if typ != nil {
		v := EAuthSessionGuardType(*typ)
		m.CodeType = &v
	}
	return nil
}

type CAuthentication_UpdateAuthSessionWithSteamGuardCode_Response struct{}

func (m *CAuthentication_UpdateAuthSessionWithSteamGuardCode_Response) Marshal() ([]byte, error) {
	return nil, nil
}

func (m *CAuthentication_UpdateAuthSessionWithSteamGuardCode_Response) Unmarshal([]byte) error {
	return nil
}

// CAuthentication_PollAuthSessionStatus_Request/Response (§4.10 "Polling").
type CAuthentication_PollAuthSessionStatus_Request struct {
	ClientId  *uint64
	RequestId []byte
}

func (m *CAuthentication_PollAuthSessionStatus_Request) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint64(b, 1, m.ClientId)
	b = appendBytes(b, 2, m.RequestId)
	return b, nil
}

func (m *CAuthentication_PollAuthSessionStatus_Request) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint64(&m.ClientId),
		2: setBytes(&m.RequestId),
	})
}

type CAuthentication_PollAuthSessionStatus_Response struct {
	NewClientId  *uint64
	NewChallengeUrl *string
	RefreshToken *string
	AccessToken  *string
	HadRemoteInteraction *bool
	AccountName  *string
	NewGuardData *string
}

func (m *CAuthentication_PollAuthSessionStatus_Response) GetRefreshToken() string {
	if m == nil || m.RefreshToken == nil {
		return ""
	}
	return *m.RefreshToken
}

func (m *CAuthentication_PollAuthSessionStatus_Response) GetNewClientId() uint64 {
	if m == nil || m.NewClientId == nil {
		return 0
	}
	return *m.NewClientId
}

func (m *CAuthentication_PollAuthSessionStatus_Response) GetNewGuardData() string {
	if m == nil || m.NewGuardData == nil {
		return ""
	}
	return *m.NewGuardData
}

func (m *CAuthentication_PollAuthSessionStatus_Response) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint64(b, 1, m.NewClientId)
	b = appendString(b, 2, m.NewChallengeUrl)
	b = appendString(b, 3, m.RefreshToken)
	b = appendString(b, 4, m.AccessToken)
	b = appendBool(b, 5, m.HadRemoteInteraction)
	b = appendString(b, 6, m.AccountName)
	b = appendString(b, 7, m.NewGuardData)
	return b, nil
}

func (m *CAuthentication_PollAuthSessionStatus_Response) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint64(&m.NewClientId),
		2: setString(&m.NewChallengeUrl),
		3: setString(&m.RefreshToken),
		4: setString(&m.AccessToken),
		5: setBool(&m.HadRemoteInteraction),
		6: setString(&m.AccountName),
		7: setString(&m.NewGuardData),
	})
}

// CAuthentication_AccessToken_GenerateForApp_Request/Response, ported from
// the teacher's steamclient/auth.go (client-platform token refresh, not the
// browser-flow RSA dance above).
type CAuthentication_AccessToken_GenerateForApp_Request struct {
	RefreshToken *string
	Steamid      *uint64
}

func (m *CAuthentication_AccessToken_GenerateForApp_Request) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.RefreshToken)
	b = appendUint64(b, 2, m.Steamid)
	return b, nil
}

func (m *CAuthentication_AccessToken_GenerateForApp_Request) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setString(&m.RefreshToken),
		2: setUint64(&m.Steamid),
	})
}

type CAuthentication_AccessToken_GenerateForApp_Response struct {
	AccessToken  *string
	RefreshToken *string
}

func (m *CAuthentication_AccessToken_GenerateForApp_Response) GetAccessToken() string {
	if m == nil || m.AccessToken == nil {
		return ""
	}
	return *m.AccessToken
}

func (m *CAuthentication_AccessToken_GenerateForApp_Response) GetRefreshToken() string {
	if m == nil || m.RefreshToken == nil {
		return ""
	}
	return *m.RefreshToken
}

func (m *CAuthentication_AccessToken_GenerateForApp_Response) Marshal() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.AccessToken)
	b = appendString(b, 2, m.RefreshToken)
	return b, nil
}

func (m *CAuthentication_AccessToken_GenerateForApp_Response) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setString(&m.AccessToken),
		2: setString(&m.RefreshToken),
	})
}
