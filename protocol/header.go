package protocol

import "google.golang.org/protobuf/encoding/protowire"

// CMsgProtoBufHeader is the header carried by every ProtoBuf-variant CM
// message (§3 "header ... ProtoBuf — a CMsgProtoBufHeader protobuf").
type CMsgProtoBufHeader struct {
	Steamid         *uint64
	ClientSessionid *int32
	JobidSource     *uint64
	JobidTarget     *uint64
	TargetJobName   *string
	Eresult         *int32
	ErrorMessage    *string
	Realm           *uint32
}

func (m *CMsgProtoBufHeader) GetSteamid() uint64 {
	if m == nil || m.Steamid == nil {
		return 0
	}
	return *m.Steamid
}

func (m *CMsgProtoBufHeader) GetClientSessionid() int32 {
	if m == nil || m.ClientSessionid == nil {
		return 0
	}
	return *m.ClientSessionid
}

func (m *CMsgProtoBufHeader) GetJobidSource() uint64 {
	if m == nil || m.JobidSource == nil {
		return 0
	}
	return *m.JobidSource
}

func (m *CMsgProtoBufHeader) GetJobidTarget() uint64 {
	if m == nil || m.JobidTarget == nil {
		return 0
	}
	return *m.JobidTarget
}

func (m *CMsgProtoBufHeader) GetTargetJobName() string {
	if m == nil || m.TargetJobName == nil {
		return ""
	}
	return *m.TargetJobName
}

func (m *CMsgProtoBufHeader) GetEresult() int32 {
	if m == nil || m.Eresult == nil {
		return 0
	}
	return *m.Eresult
}

func (m *CMsgProtoBufHeader) GetErrorMessage() string {
	if m == nil || m.ErrorMessage == nil {
		return ""
	}
	return *m.ErrorMessage
}

func (m *CMsgProtoBufHeader) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint64(b, 1, m.Steamid)
	b = appendInt32(b, 2, m.ClientSessionid)
	b = appendUint64(b, 10, m.JobidSource)
	b = appendUint64(b, 11, m.JobidTarget)
	b = appendString(b, 12, m.TargetJobName)
	b = appendInt32(b, 13, m.Eresult)
	b = appendString(b, 14, m.ErrorMessage)
	b = appendUint32(b, 15, m.Realm)
	return b, nil
}

func (m *CMsgProtoBufHeader) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1:  setUint64(&m.Steamid),
		2:  setInt32(&m.ClientSessionid),
		10: setUint64(&m.JobidSource),
		11: setUint64(&m.JobidTarget),
		12: setString(&m.TargetJobName),
		13: setInt32(&m.Eresult),
		14: setString(&m.ErrorMessage),
		15: setUint32(&m.Realm),
	})
}
