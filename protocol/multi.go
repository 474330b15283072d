package protocol

import "google.golang.org/protobuf/encoding/protowire"

// CMsgMulti wraps a sequence of sub-packets, optionally gzip-compressed
// (§4.8 "destruct-monitor ordering guarantee" depends on expanding this
// before any other handler observes the packets it contains).
type CMsgMulti struct {
	SizeUnzipped *uint32
	MessageBody  []byte
}

func (m *CMsgMulti) GetSizeUnzipped() uint32 {
	if m == nil || m.SizeUnzipped == nil {
		return 0
	}
	return *m.SizeUnzipped
}

func (m *CMsgMulti) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, m.SizeUnzipped)
	b = appendBytes(b, 2, m.MessageBody)
	return b, nil
}

func (m *CMsgMulti) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint32(&m.SizeUnzipped),
		2: setBytes(&m.MessageBody),
	})
}
