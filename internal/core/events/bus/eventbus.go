package bus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Event is an immutable message. Tick stamps it with simulation time rather
// than wall time so replays publish identical streams.
type Event struct {
	Type   string
	Source string
	Tick   uint64
	Data   any
}

// NewEvent builds an Event.
func NewEvent(typ, src string, tick uint64, data any) Event {
	return Event{Type: typ, Source: src, Tick: tick, Data: data}
}

type subscription struct {
	id        string
	topic     string
	eventType string
	handler   EventHandler
	bus       *inMemoryBus

	mu     sync.Mutex
	active bool
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) Topic() string     { return s.topic }
func (s *subscription) EventType() string { return s.eventType }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	s.mu.Unlock()
	s.bus.remove(s)
	return nil
}

// inMemoryBus routes topic -> eventType -> subID -> subscription.
type inMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]map[string]map[string]*subscription
	order    map[string][]string // topic/type -> sub ids in subscription order
}

// New creates an empty EventBus.
func New() EventBus {
	return &inMemoryBus{
		handlers: make(map[string]map[string]map[string]*subscription),
		order:    make(map[string][]string),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	return b.deliver("", event)
}

func (b *inMemoryBus) PublishToTopic(topic string, event Event) error {
	return b.deliver(topic, event)
}

func (b *inMemoryBus) PublishBatch(topic string, events ...Event) error {
	var errs []error
	for _, e := range events {
		if err := b.deliver(topic, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	return b.SubscribeTopic("", eventType, handler)
}

func (b *inMemoryBus) SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error) {
	if eventType == "" {
		return nil, ErrEmptyEventType
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[string]map[string]*subscription)
	}
	if b.handlers[topic][eventType] == nil {
		b.handlers[topic][eventType] = make(map[string]*subscription)
	}
	s := &subscription{
		id:        uuid.NewString(),
		topic:     topic,
		eventType: eventType,
		handler:   handler,
		bus:       b,
		active:    true,
	}
	b.handlers[topic][eventType][s.id] = s
	key := orderKey(topic, eventType)
	b.order[key] = append(b.order[key], s.id)
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) Topics() []TopicInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]TopicInfo, 0, len(b.handlers))
	for name, types := range b.handlers {
		info := TopicInfo{Name: name, EventTypes: len(types)}
		for _, subs := range types {
			info.Subs += len(subs)
		}
		out = append(out, info)
	}
	return out
}

func (b *inMemoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs := b.handlers[s.topic][s.eventType]; subs != nil {
		delete(subs, s.id)
	}
	key := orderKey(s.topic, s.eventType)
	ids := b.order[key]
	for i, id := range ids {
		if id == s.id {
			b.order[key] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

// deliver calls handlers in subscription order so event streams stay
// deterministic.
func (b *inMemoryBus) deliver(topic string, event Event) error {
	if event.Type == "" {
		return ErrEmptyEventType
	}

	b.mu.RLock()
	ids := b.order[orderKey(topic, event.Type)]
	subs := make([]*subscription, 0, len(ids))
	for _, id := range ids {
		if s, ok := b.handlers[topic][event.Type][id]; ok {
			subs = append(subs, s)
		}
	}
	b.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		if err := s.handler(event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler %s: %w", event.Type, s.id, err))
		}
	}
	return errors.Join(errs...)
}

func orderKey(topic, eventType string) string { return topic + "\x00" + eventType }
