package bus

// EventBus is a thread-safe, in-process pub/sub bus.
//
//   - Handlers subscribe by Event.Type within a topic; "" is the default topic.
//   - Publish delivers synchronously in the caller goroutine, so handlers run
//     between race ticks and must return quickly.
//   - Handler errors are joined and returned from Publish.
type EventBus interface {
	// Publish delivers event to subscribers of event.Type in the default topic.
	Publish(event Event) error
	// PublishToTopic delivers event within topic.
	PublishToTopic(topic string, event Event) error
	// PublishBatch publishes events in order within topic and joins errors.
	PublishBatch(topic string, events ...Event) error

	// Subscribe registers handler for eventType in the default topic.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// SubscribeTopic registers handler for eventType within topic.
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. A nil sub is ignored.
	Unsubscribe(sub Subscription) error

	// Topics returns a snapshot of known topics.
	Topics() []TopicInfo
}

// EventHandler is invoked once per delivered event.
type EventHandler func(event Event) error

// Subscription is a registered handler.
type Subscription interface {
	ID() string
	Topic() string
	EventType() string
	IsActive() bool
	// Cancel removes the handler. Repeated calls are safe.
	Cancel() error
}

// TopicInfo is a point-in-time view of a topic.
type TopicInfo struct {
	Name       string
	EventTypes int
	Subs       int
}
