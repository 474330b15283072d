package client

import (
	"context"
	"time"

	"github.com/k64z/steamfleet/clientstate"
	"github.com/k64z/steamfleet/protocol"
	"github.com/k64z/steamfleet/sched"
	"github.com/k64z/steamfleet/waiter"
	"github.com/k64z/steamfleet/whiteboard"
	"github.com/k64z/steamfleet/wire"
)

// defaultHeartbeatInterval is used until logon publishes the server-assigned
// clientstate.HeartbeatInterval.
const defaultHeartbeatInterval = 2 * time.Minute

// heartbeatLoop sends CMsgClientHeartBeat whenever the connection has been
// idle for clientstate.HeartbeatInterval, rather than on a fixed ticker
// (§4.11 "Heartbeat (C11)": the loop watches LastMessageSent and only sends
// once that much time has elapsed since the last outbound message, so an
// active connection doing other unified-messaging traffic never sends a
// redundant heartbeat). Grounded on steamclient.Client.heartbeatLoop's
// ticker-based version, replaced per §4.11 to key off Whiteboard activity
// instead of wall-clock ticks.
func (c *Client) heartbeatLoop(ctx context.Context) error {
	for {
		interval := time.Duration(whiteboard.GetOr(c.wb, clientstate.HeartbeatInterval(defaultHeartbeatInterval)))
		if interval <= 0 {
			interval = defaultHeartbeatInterval
		}

		last := time.Time(whiteboard.GetOr(c.wb, clientstate.LastMessageSent(time.Now())))
		wait := interval - time.Since(last)
		if wait <= 0 {
			wait = time.Millisecond // Wait treats 0 as no time limit
		}

		if result := c.w.Wait(ctx, wait); result == waiter.WaitCancelled {
			return sched.ErrOperationCancelled
		}

		last = time.Time(whiteboard.GetOr(c.wb, clientstate.LastMessageSent(time.Now())))
		if time.Since(last) < interval {
			continue // woken early by unrelated activity; re-check the deadline
		}

		if err := c.sendHeartbeat(ctx); err != nil {
			c.logger.Warn("client: heartbeat send failed", "error", err)
		}
	}
}

func (c *Client) sendHeartbeat(ctx context.Context) error {
	hb := &protocol.CMsgClientHeartBeat{SendReply: protocol.Bool(false)}
	body, err := hb.Marshal()
	if err != nil {
		return err
	}
	return c.SendMessage(ctx, &wire.Message{
		Type:  wire.EMsgClientHeartBeat,
		Kind:  wire.HeaderProtoBuf,
		Proto: &wire.ProtoBufHeader{Proto: &protocol.CMsgProtoBufHeader{}},
		Body:  body,
	})
}
