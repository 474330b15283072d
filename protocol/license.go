package protocol

import "google.golang.org/protobuf/encoding/protowire"

// License is one entry of CMsgClientLicenseList (grounded on
// original_source's license-list handling referenced by the license module).
type License struct {
	PackageId       *uint32
	LastChangeNumber *uint32
	TimeCreated     *uint32
	TimeNextProcess *uint32
	LicenseType     *uint32
	PaymentMethod   *uint32
	AccessToken     *uint64
}

func (m *License) GetPackageId() uint32 {
	if m == nil || m.PackageId == nil {
		return 0
	}
	return *m.PackageId
}

func (m *License) GetAccessToken() uint64 {
	if m == nil || m.AccessToken == nil {
		return 0
	}
	return *m.AccessToken
}

func (m *License) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, m.PackageId)
	b = appendUint32(b, 2, m.LastChangeNumber)
	b = appendUint32(b, 3, m.TimeCreated)
	b = appendUint32(b, 4, m.TimeNextProcess)
	b = appendUint32(b, 5, m.LicenseType)
	b = appendUint32(b, 6, m.PaymentMethod)
	b = appendUint64(b, 7, m.AccessToken)
	return b, nil
}

func (m *License) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint32(&m.PackageId),
		2: setUint32(&m.LastChangeNumber),
		3: setUint32(&m.TimeCreated),
		4: setUint32(&m.TimeNextProcess),
		5: setUint32(&m.LicenseType),
		6: setUint32(&m.PaymentMethod),
		7: setUint64(&m.AccessToken),
	})
}

// CMsgClientLicenseList is the server-push message the license module
// listens for (§ "module hot-plug registry" example: license module).
type CMsgClientLicenseList struct {
	Licenses []*License
}

func (m *CMsgClientLicenseList) Marshal() ([]byte, error) {
	var b []byte
	b, err := appendRepeatedMessage(b, 1, m.Licenses)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (m *CMsgClientLicenseList) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setRepeatedMessage(&m.Licenses,
			func() *License { return &License{} },
			func(e *License, b []byte) error { return e.Unmarshal(b) }),
	})
}
