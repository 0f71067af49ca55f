package event

import (
	"slices"
	"sync"
)

// Event is pushed to subscribers as a server-sent event. Type becomes the SSE event name.
type Event struct {
	Type    string
	Message string
}

func NewEventBroker(bufferSize int) *Broker {
	return &Broker{
		subscribers: make(map[uint]map[uint64]chan Event),
		bufferSize:  bufferSize,
	}
}

// Broker fans events out to the subscriptions of a user. A user can hold any number of
// subscriptions, one per open stream.
type Broker struct {
	lock        sync.RWMutex
	subscribers map[uint]map[uint64]chan Event
	nextID      uint64
	bufferSize  int
	closed      bool
}

type Subscription struct {
	id     uint64
	userID uint
	events chan Event
}

// Events returns the channel events are delivered on. It is closed on Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (b *Broker) Subscribe(userID uint) *Subscription {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.nextID++
	subscription := &Subscription{
		id:     b.nextID,
		userID: userID,
		events: make(chan Event, b.bufferSize),
	}

	if b.closed {
		close(subscription.events)
		return subscription
	}

	if b.subscribers[userID] == nil {
		b.subscribers[userID] = make(map[uint64]chan Event)
	}
	b.subscribers[userID][subscription.id] = subscription.events

	return subscription
}

// Unsubscribe removes the subscription and closes its channel. Calling it more than once is a
// no-op.
func (b *Broker) Unsubscribe(subscription *Subscription) {
	b.lock.Lock()
	defer b.lock.Unlock()

	subscriptions, ok := b.subscribers[subscription.userID]
	if !ok {
		return
	}

	events, ok := subscriptions[subscription.id]
	if !ok {
		return
	}

	close(events)
	delete(subscriptions, subscription.id)
	if len(subscriptions) == 0 {
		delete(b.subscribers, subscription.userID)
	}
}

// Close ends every subscription and makes new ones end right away. Open streams return once their
// channel is drained, which lets the HTTP server shut down.
func (b *Broker) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.closed = true
	for userID, subscriptions := range b.subscribers {
		for _, events := range subscriptions {
			close(events)
		}
		delete(b.subscribers, userID)
	}
}

// Subscribers returns the ids of the users with at least one subscription.
func (b *Broker) Subscribers() []uint {
	b.lock.RLock()
	defer b.lock.RUnlock()

	ids := make([]uint, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Send delivers the event to every subscription of the user and returns how many received it.
// Subscriptions with a full buffer miss the event.
func (b *Broker) Send(userID uint, event Event) int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	delivered := 0
	for _, events := range b.subscribers[userID] {
		select {
		case events <- event:
			delivered++
		default:
		}
	}
	return delivered
}
