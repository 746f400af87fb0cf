/*
Package event fans canvas changes out to every connected viewer.

A Bus is both the subscriber registry and the broadcaster. Each open stream
holds a Subscription: a bounded queue of encoded frames plus a heartbeat
ticker owned by the subscription.

# Lifecycle

	sub, err := bus.Register(store.Snapshot())
	if err != nil {
		return err
	}
	defer bus.Unregister(sub)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done():
			return nil
		case f := <-sub.Frames():
			w.Write(f.Raw)
		}
	}

Register queues a ": connected" comment and a reload frame carrying the
snapshot. Heartbeat comments follow every DefaultHeartbeatInterval until
Unregister stops the ticker.

# Wire format

Comment frames are ": <text>\n\n". Data frames are "data: <json>\n\n" where
the JSON is an Envelope:

	{"timestamp":"2025-01-01T00:00:00.000Z","type":"canvas-add-element","payload":{...}}

Broadcast encodes the envelope once and hands the same bytes to every
subscriber in registration order.

# Slow subscribers

Enqueueing never blocks. When a subscriber's queue is full the subscription
is ended and marked lagged; the viewer reconnects and receives a fresh
reload instead of a stream with a gap.

# Journal

Every broadcast is also published to the watermill gochannel topic
JournalTopic and logged at debug level by a journal goroutine.
*/
package event
