package autoaccept

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/k64z/steamfleet/modules/tradeoffers"
	"github.com/k64z/steamfleet/steamid"
)

func TestAcceptsPolicyAll(t *testing.T) {
	m := &Module{policy: PolicyAll}
	assert.True(t, m.accepts(tradeoffers.IncomingOffer{}))
}

func TestAcceptsPolicyNone(t *testing.T) {
	m := &Module{policy: PolicyNone}
	assert.False(t, m.accepts(tradeoffers.IncomingOffer{
		ItemsToReceive: []tradeoffers.AssetRef{{AppID: 730}},
	}))
}

func TestAcceptsPolicyGiftsOnly(t *testing.T) {
	m := &Module{policy: PolicyGiftsOnly}

	gift := tradeoffers.IncomingOffer{
		ItemsToReceive: []tradeoffers.AssetRef{{AppID: 730}},
	}
	assert.True(t, m.accepts(gift), "offer with nothing given up should be accepted")

	even := tradeoffers.IncomingOffer{
		ItemsToReceive: []tradeoffers.AssetRef{{AppID: 730}},
		ItemsToGive:    []tradeoffers.AssetRef{{AppID: 730}},
	}
	assert.False(t, m.accepts(even), "an even trade is not a gift")
}

func TestAcceptsPolicyManagedPartners(t *testing.T) {
	partner := steamid.SteamID(76561198012345678)
	stranger := steamid.SteamID(76561198000000001)

	m := &Module{
		policy:   PolicyManagedPartners,
		partners: map[steamid.SteamID]bool{partner: true},
	}

	assert.True(t, m.accepts(tradeoffers.IncomingOffer{PartnerSteamID: partner}))
	assert.False(t, m.accepts(tradeoffers.IncomingOffer{PartnerSteamID: stranger}))
}
