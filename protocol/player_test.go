package protocol

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlayerGetBadgesRequestRoundTrip(t *testing.T) {
	original := &CPlayer_GetBadges_Request{Steamid: Uint64(76561198012345678)}

	data, err := original.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded CPlayer_GetBadges_Request
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff(original, &decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayerGetBadgesResponseRoundTrip(t *testing.T) {
	original := &CPlayer_GetBadges_Response{
		Badges: []*CPlayer_Badge{
			{
				Badgeid:         Uint32(13),
				Level:           Uint32(1),
				CompletionTime:  Uint32(1700000000),
				Xp:              Uint32(100),
				Scarcity:        Uint32(5000),
				AppID:           Uint32(730),
				CommunityItemID: Uint64(999),
				BorderColor:     Uint32(2),
			},
			{
				Badgeid: Uint32(14),
				AppID:   Uint32(440),
				Level:   Uint32(0),
			},
		},
		PlayerXp:                   Uint32(5000),
		PlayerLevel:                Uint32(10),
		PlayerXpNeededToLevelUp:    Uint32(500),
		PlayerXpNeededCurrentLevel: Uint32(4500),
	}

	data, err := original.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded CPlayer_GetBadges_Response
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff(original, &decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if got, want := decoded.Badges[0].GetAppID(), uint32(730); got != want {
		t.Errorf("GetAppID: got %d, want %d", got, want)
	}
	if got, want := decoded.Badges[1].GetLevel(), uint32(0); got != want {
		t.Errorf("GetLevel: got %d, want %d", got, want)
	}
}
