package protocol

import "google.golang.org/protobuf/encoding/protowire"

// GamePlayed is one entry of CMsgClientGamesPlayed, grounded on the
// play-games module's need to announce a running appid to the CM so
// in-game status and card-drop eligibility track correctly.
type GamePlayed struct {
	GameId         *uint64
	GameExtraInfo  *string
	ProcessId      *uint32
}

func (m *GamePlayed) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint64(b, 1, m.GameId)
	b = appendString(b, 2, m.GameExtraInfo)
	b = appendUint32(b, 3, m.ProcessId)
	return b, nil
}

func (m *GamePlayed) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint64(&m.GameId),
		2: setString(&m.GameExtraInfo),
		3: setUint32(&m.ProcessId),
	})
}

type CMsgClientGamesPlayed struct {
	GamesPlayed []*GamePlayed
	ClientOsType *uint32
}

func (m *CMsgClientGamesPlayed) Marshal() ([]byte, error) {
	var b []byte
	b, err := appendRepeatedMessage(b, 1, m.GamesPlayed)
	if err != nil {
		return nil, err
	}
	b = appendUint32(b, 2, m.ClientOsType)
	return b, nil
}

func (m *CMsgClientGamesPlayed) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setRepeatedMessage(&m.GamesPlayed,
			func() *GamePlayed { return &GamePlayed{} },
			func(e *GamePlayed, b []byte) error { return e.Unmarshal(b) }),
		2: setUint32(&m.ClientOsType),
	})
}
