package cardfarmer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/k64z/steamfleet/messageboard"
	"github.com/k64z/steamfleet/modules/badgedata"
	"github.com/k64z/steamfleet/modules/playgames"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/whiteboard"
)

func TestProcessRequestsOnlyIncompleteBadges(t *testing.T) {
	mb := messageboard.New()
	w := waiter.New()
	obs := messageboard.CreateObserver[playgames.Request](mb, w)

	m := &Module{c: fakeClient{mb: mb}}
	m.process(&badgedata.BadgeData{
		Badges: map[uint32]badgedata.Badge{
			730: {AppID: 730, Level: 0},
			440: {AppID: 440, Level: cardCompletionLevel},
			570: {AppID: 570, Level: 2},
		},
	})

	got, ok := obs.Fetch()
	require.True(t, ok, "expected a playgames.Request to be posted")
	require.ElementsMatch(t, []uint32{730}, got.AppIDs)
}

type fakeClient struct {
	mb *messageboard.Messageboard
}

func (f fakeClient) Whiteboard() *whiteboard.Whiteboard { return whiteboard.New() }

func (f fakeClient) Messageboard() *messageboard.Messageboard { return f.mb }

func (f fakeClient) Waiter() *waiter.Waiter { return waiter.New() }

func (f fakeClient) Scheduler() *sched.Scheduler { return nil }
