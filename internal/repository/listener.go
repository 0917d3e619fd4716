package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// bookingChannel is the NOTIFY channel raised by the bookings table trigger.
// The payload is the affected resource id, so subscriptions can be scoped to
// a single resource.
const bookingChannel = "booking_changes"

// ChangeListener fans Postgres NOTIFY events for the bookings table out to
// per-resource subscribers. The availability index subscribes while a
// calendar view is open and recomputes slot statuses on every event.
type ChangeListener struct {
	pq  *pq.Listener
	log *zap.Logger

	mu   sync.Mutex
	subs map[uuid.UUID]map[chan struct{}]struct{}
}

func NewChangeListener(databaseURL string, log *zap.Logger) *ChangeListener {
	l := &ChangeListener{
		log:  log,
		subs: make(map[uuid.UUID]map[chan struct{}]struct{}),
	}
	l.pq = pq.NewListener(databaseURL, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn("booking change listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	return l
}

// Run listens until ctx is cancelled. A nil notification (reconnect) fans
// out to every subscriber, since changes may have been missed while the
// connection was down.
func (l *ChangeListener) Run(ctx context.Context) error {
	if err := l.pq.Listen(bookingChannel); err != nil {
		return err
	}
	defer l.pq.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-l.pq.Notify:
			if n == nil {
				l.broadcastAll()
				continue
			}
			resourceID, err := uuid.Parse(n.Extra)
			if err != nil {
				l.log.Warn("booking change notification with bad payload", zap.String("payload", n.Extra))
				continue
			}
			l.broadcast(resourceID)
		case <-time.After(90 * time.Second):
			go l.pq.Ping()
		}
	}
}

// Subscribe returns a channel that receives a tick whenever a booking for
// the given resource changes, plus a release function tied to the view's
// lifetime. The channel has capacity one; a pending tick already means
// "recompute", so further ticks are coalesced.
func (l *ChangeListener) Subscribe(resourceID uuid.UUID) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	l.mu.Lock()
	if l.subs[resourceID] == nil {
		l.subs[resourceID] = make(map[chan struct{}]struct{})
	}
	l.subs[resourceID][ch] = struct{}{}
	l.mu.Unlock()

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if set, ok := l.subs[resourceID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(l.subs, resourceID)
			}
		}
	}
	return ch, release
}

func (l *ChangeListener) broadcast(resourceID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.subs[resourceID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (l *ChangeListener) broadcastAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, set := range l.subs {
		for ch := range set {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}
