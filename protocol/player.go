package protocol

import "google.golang.org/protobuf/encoding/protowire"

// CPlayer_GetBadges_Request/Response ground modules/badgedata's call to the
// unified Player.GetBadges#1 method (steammessages_player.steamclient.proto).
type CPlayer_GetBadges_Request struct {
	Steamid *uint64
}

func (m *CPlayer_GetBadges_Request) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint64(b, 1, m.Steamid)
	return b, nil
}

func (m *CPlayer_GetBadges_Request) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint64(&m.Steamid),
	})
}

type CPlayer_Badge struct {
	Badgeid        *uint32
	Level          *uint32
	CompletionTime *uint32
	Xp             *uint32
	Scarcity       *uint32
	AppID          *uint32
	CommunityItemID *uint64
	BorderColor    *uint32
}

func (m *CPlayer_Badge) GetBadgeid() uint32 {
	if m == nil || m.Badgeid == nil {
		return 0
	}
	return *m.Badgeid
}

func (m *CPlayer_Badge) GetAppID() uint32 {
	if m == nil || m.AppID == nil {
		return 0
	}
	return *m.AppID
}

func (m *CPlayer_Badge) GetLevel() uint32 {
	if m == nil || m.Level == nil {
		return 0
	}
	return *m.Level
}

func (m *CPlayer_Badge) GetXp() uint32 {
	if m == nil || m.Xp == nil {
		return 0
	}
	return *m.Xp
}

func (m *CPlayer_Badge) Marshal() ([]byte, error) {
	var b []byte
	b = appendUint32(b, 1, m.Badgeid)
	b = appendUint32(b, 2, m.Level)
	b = appendUint32(b, 3, m.CompletionTime)
	b = appendUint32(b, 4, m.Xp)
	b = appendUint32(b, 5, m.Scarcity)
	b = appendUint32(b, 6, m.AppID)
	b = appendUint64(b, 7, m.CommunityItemID)
	b = appendUint32(b, 8, m.BorderColor)
	return b, nil
}

func (m *CPlayer_Badge) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setUint32(&m.Badgeid),
		2: setUint32(&m.Level),
		3: setUint32(&m.CompletionTime),
		4: setUint32(&m.Xp),
		5: setUint32(&m.Scarcity),
		6: setUint32(&m.AppID),
		7: setUint64(&m.CommunityItemID),
		8: setUint32(&m.BorderColor),
	})
}

type CPlayer_GetBadges_Response struct {
	Badges                    []*CPlayer_Badge
	PlayerXp                  *uint32
	PlayerLevel               *uint32
	PlayerXpNeededToLevelUp   *uint32
	PlayerXpNeededCurrentLevel *uint32
}

func (m *CPlayer_GetBadges_Response) Marshal() ([]byte, error) {
	var b []byte
	b, err := appendRepeatedMessage(b, 1, m.Badges)
	if err != nil {
		return nil, err
	}
	b = appendUint32(b, 2, m.PlayerXp)
	b = appendUint32(b, 3, m.PlayerLevel)
	b = appendUint32(b, 4, m.PlayerXpNeededToLevelUp)
	b = appendUint32(b, 5, m.PlayerXpNeededCurrentLevel)
	return b, nil
}

func (m *CPlayer_GetBadges_Response) Unmarshal(data []byte) error {
	return unmarshalFields(data, map[protowire.Number]fieldSetter{
		1: setRepeatedMessage(&m.Badges,
			func() *CPlayer_Badge { return &CPlayer_Badge{} },
			func(e *CPlayer_Badge, b []byte) error { return e.Unmarshal(b) }),
		2: setUint32(&m.PlayerXp),
		3: setUint32(&m.PlayerLevel),
		4: setUint32(&m.PlayerXpNeededToLevelUp),
		5: setUint32(&m.PlayerXpNeededCurrentLevel),
	})
}
