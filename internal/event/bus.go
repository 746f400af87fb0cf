package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/oklog/ulid/v2"

	"github.com/mcp-x-studio/canvas/internal/logging"
	"github.com/mcp-x-studio/canvas/pkg/types"
)

const (
	// DefaultHeartbeatInterval is how often an idle subscriber gets a comment frame.
	DefaultHeartbeatInterval = 2 * time.Second
	// DefaultQueueSize is the number of frames buffered per subscriber.
	DefaultQueueSize = 256
	// JournalTopic is the watermill topic every broadcast is mirrored to.
	JournalTopic = "canvas.events"
)

// ErrClosed is returned by Register after Close.
var ErrClosed = errors.New("event bus closed")

// Subscription is one open stream. Frames are delivered in order on
// Frames(); Done() is closed when the subscription ends, either through
// Unregister or because the subscriber fell too far behind.
type Subscription struct {
	ID string

	frames        chan Frame
	done          chan struct{}
	stopOnce      sync.Once
	lagged        atomic.Bool
	heartbeatDone chan struct{}
}

func newSubscription(queueSize int) *Subscription {
	return &Subscription{
		ID:            ulid.Make().String(),
		frames:        make(chan Frame, queueSize),
		done:          make(chan struct{}),
		heartbeatDone: make(chan struct{}),
	}
}

// Frames returns the outbound frame queue.
func (s *Subscription) Frames() <-chan Frame {
	return s.frames
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Lagged reports whether the subscription was ended because its queue
// overflowed. The viewer should reconnect and start from a fresh reload.
func (s *Subscription) Lagged() bool {
	return s.lagged.Load()
}

// offer enqueues f without blocking.
func (s *Subscription) offer(f Frame) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.frames <- f:
		return true
	default:
		return false
	}
}

func (s *Subscription) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// heartbeat owns the subscription's ticker until the subscription ends.
func (s *Subscription) heartbeat(interval time.Duration, active *atomic.Int64) {
	defer close(s.heartbeatDone)
	defer active.Add(-1)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			// A full queue already has frames pending; skipping a
			// heartbeat there is harmless.
			s.offer(heartbeatFrame)
		}
	}
}

// Option configures a Bus.
type Option func(*Bus)

// WithHeartbeatInterval sets the per-subscription heartbeat interval.
// Zero disables heartbeats.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(b *Bus) { b.heartbeat = d }
}

// WithQueueSize sets the per-subscription frame buffer.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n >= 2 {
			b.queueSize = n
		}
	}
}

// WithClock overrides the time source used for envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) { b.now = now }
}

// Bus tracks open subscriptions and fans every broadcast out to them in
// registration order. Broadcasts are also published to a watermill
// gochannel topic that a journal goroutine drains into the debug log.
type Bus struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool

	heartbeat time.Duration
	queueSize int
	now       func() time.Time

	activeTimers atomic.Int64

	pubsub        *gochannel.GoChannel
	journalCancel context.CancelFunc
	journalDone   chan struct{}
}

// NewBus creates a bus and starts its journal.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		heartbeat: DefaultHeartbeatInterval,
		queueSize: DefaultQueueSize,
		now:       time.Now,
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
		journalDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.journalCancel = cancel

	msgs, err := b.pubsub.Subscribe(ctx, JournalTopic)
	if err != nil {
		logging.Warn().Err(err).Msg("event journal disabled")
		close(b.journalDone)
		return b
	}
	go b.journal(msgs)

	return b
}

// journal logs mirrored broadcasts. Delivery through gochannel is
// asynchronous, so journal order may differ from broadcast order.
func (b *Bus) journal(msgs <-chan *message.Message) {
	defer close(b.journalDone)
	for msg := range msgs {
		logging.Debug().
			Str("event", msg.Metadata.Get("type")).
			Str("id", msg.UUID).
			Int("bytes", len(msg.Payload)).
			Msg("broadcast")
		msg.Ack()
	}
}

// Register opens a subscription. Its queue starts with a "connected"
// comment followed by a reload frame carrying snapshot, so the subscriber
// is consistent with the document regardless of earlier history.
func (b *Bus) Register(snapshot *types.Document) (*Subscription, error) {
	reload, err := EncodeData(NewEnvelope(b.now(), Reload, snapshot))
	if err != nil {
		return nil, fmt.Errorf("encode reload: %w", err)
	}

	sub := newSubscription(b.queueSize)
	sub.offer(connectedFrame)
	sub.offer(reload)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	if b.heartbeat > 0 {
		b.activeTimers.Add(1)
		go sub.heartbeat(b.heartbeat, &b.activeTimers)
	} else {
		close(sub.heartbeatDone)
	}

	logging.Debug().Str("subscription", sub.ID).Msg("subscriber registered")
	return sub, nil
}

// Unregister ends sub, stops its heartbeat and removes it from the active
// set. It is safe to call more than once. When it returns the heartbeat
// ticker has been stopped.
func (b *Bus) Unregister(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	if i := slices.Index(b.subs, sub); i >= 0 {
		b.subs = slices.Delete(b.subs, i, i+1)
	}
	b.mu.Unlock()

	sub.stop()
	<-sub.heartbeatDone

	logging.Debug().
		Str("subscription", sub.ID).
		Bool("lagged", sub.Lagged()).
		Msg("subscriber unregistered")
}

// Broadcast encodes one envelope and enqueues the identical frame on every
// open subscription. A subscriber whose queue is full is ended instead of
// losing the frame silently; it is removed when its stream unregisters.
func (b *Bus) Broadcast(eventType EventType, payload any) error {
	frame, err := EncodeData(NewEnvelope(b.now(), eventType, payload))
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	for _, sub := range b.subs {
		if !sub.offer(frame) {
			if sub.lagged.CompareAndSwap(false, true) {
				logging.Warn().
					Str("subscription", sub.ID).
					Str("event", string(eventType)).
					Msg("subscriber queue full, closing stream")
			}
			sub.stop()
		}
	}
	b.mu.Unlock()

	msg := message.NewMessage(ulid.Make().String(), frame.JSON)
	msg.Metadata.Set("type", string(eventType))
	if err := b.pubsub.Publish(JournalTopic, msg); err != nil {
		logging.Debug().Err(err).Msg("journal publish failed")
	}
	return nil
}

// Count returns the number of open subscriptions.
func (b *Bus) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// ActiveTimers returns the number of running heartbeat tickers.
func (b *Bus) ActiveTimers() int {
	return int(b.activeTimers.Load())
}

// Close ends every subscription and shuts the journal down.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
		<-sub.heartbeatDone
	}

	b.journalCancel()
	err := b.pubsub.Close()
	<-b.journalDone
	return err
}
