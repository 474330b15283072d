package protocol

import "google.golang.org/protobuf/encoding/protowire"

// PICSPackageRequest/PICSPackageInfo ground the packagedata module's need to
// resolve a license's packageid into the package's current change number and
// depot-access tokens.
type PICSPackageRequest struct {
	Packageid    *uint32
	AccessToken  *uint64
}

func (m *PICSPackageRequest) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, m.Packageid)
	b = appendUint64(b, 2, m.AccessToken)
	return b, nil
}

func (m *PICSPackageRequest) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint32(&m.Packageid),
		2: setUint64(&m.AccessToken),
	})
}

type CMsgClientPICSProductInfoRequest struct {
	Packages []*PICSPackageRequest
	MetaDataOnly *bool
}

func (m *CMsgClientPICSProductInfoRequest) Marshal() ([]byte, error) {
	var b []byte
	b, err := appendRepeatedMessage(b, 1, m.Packages)
	if err != nil {
		return nil, err
	}
	b = appendBool(b, 2, m.MetaDataOnly)
	return b, nil
}

func (m *CMsgClientPICSProductInfoRequest) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setRepeatedMessage(&m.Packages,
			func() *PICSPackageRequest { return &PICSPackageRequest{} },
			func(e *PICSPackageRequest, b []byte) error { return e.Unmarshal(b) }),
		2: setBool(&m.MetaDataOnly),
	})
}

type PICSPackageInfo struct {
	Packageid    *uint32
	ChangeNumber *uint32
	Buffer       []byte
}

func (m *PICSPackageInfo) GetPackageid() uint32 {
	if m == nil || m.Packageid == nil {
		return 0
	}
	return *m.Packageid
}

func (m *PICSPackageInfo) GetChangeNumber() uint32 {
	if m == nil || m.ChangeNumber == nil {
		return 0
	}
	return *m.ChangeNumber
}

func (m *PICSPackageInfo) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, m.Packageid)
	b = appendUint32(b, 2, m.ChangeNumber)
	b = appendBytes(b, 3, m.Buffer)
	return b, nil
}

func (m *PICSPackageInfo) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint32(&m.Packageid),
		2: setUint32(&m.ChangeNumber),
		3: setBytes(&m.Buffer),
	})
}

type CMsgClientPICSProductInfoResponse struct {
	Packages    []*PICSPackageInfo
	ResponsePending *bool
}

func (m *CMsgClientPICSProductInfoResponse) GetResponsePending() bool {
	if m == nil || m.ResponsePending == nil {
		return false
	}
	return *m.ResponsePending
}

func (m *CMsgClientPICSProductInfoResponse) Marshal() ([]byte, error) {
	var b []byte
	b, err := appendRepeatedMessage(b, 1, m.Packages)
	if err != nil {
		return nil, err
	}
	b = appendBool(b, 2, m.ResponsePending)
	return b, nil
}

func (m *CMsgClientPICSProductInfoResponse) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setRepeatedMessage(&m.Packages,
			func() *PICSPackageInfo { return &PICSPackageInfo{} },
			func(e *PICSPackageInfo, b []byte) error { return e.Unmarshal(b) }),
		2: setBool(&m.ResponsePending),
	})
}
