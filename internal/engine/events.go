package engine

// EventType names an engine event topic.
type EventType string

const (
	EventConstructionQueued   EventType = "construction-queued"
	EventConstructionComplete EventType = "construction-complete"
	EventColonistHired        EventType = "colonist-hired"
	EventColonistDeath        EventType = "colonist-death"
	EventResearchStarted      EventType = "research-started"
	EventResearchComplete     EventType = "research-complete"
	EventObjectiveComplete    EventType = "objective-complete"
	EventStorageOverflow      EventType = "storage-overflow"
	EventGameOver             EventType = "game-over"
	EventGameReset            EventType = "game-reset"
	EventStateLoaded          EventType = "state-loaded"
	EventStateInvalid         EventType = "state-invalid"
	EventScenarioChange       EventType = "scenario-change"
	EventSpeedChange          EventType = "speed-change"
	EventPauseChange          EventType = "pause-change"

	// EventAll subscribes to every topic.
	EventAll EventType = "*"
)

// Event is a notification published on the bus.
type Event struct {
	Type EventType      `json:"type"`
	Tick uint64         `json:"tick"`
	Data map[string]any `json:"data,omitempty"`
}

// Handler receives events synchronously on the publisher's call stack.
type Handler func(Event)

// EmitFunc is how systems publish without holding the bus.
type EmitFunc func(EventType, map[string]any)

type subscription struct {
	id      int
	handler Handler
}

// EventBus is a topic to subscriber-list map with synchronous fan-out.
// Handlers run in subscription order; a panicking handler propagates to
// the publisher.
type EventBus struct {
	topics map[EventType][]subscription
	nextID int
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{topics: make(map[EventType][]subscription)}
}

// On subscribes handler to topic and returns its unsubscribe function.
func (b *EventBus) On(topic EventType, handler Handler) func() {
	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscription{id: id, handler: handler})
	return func() { b.off(topic, id) }
}

func (b *EventBus) off(topic EventType, id int) {
	subs := b.topics[topic]
	for i, s := range subs {
		if s.id == id {
			// Copy so a publish already iterating the old slice is unaffected.
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.topics[topic] = next
			return
		}
	}
}

// Publish delivers ev to the topic's subscribers, then to wildcard subscribers.
func (b *EventBus) Publish(ev Event) {
	for _, s := range b.topics[ev.Type] {
		s.handler(ev)
	}
	if ev.Type == EventAll {
		return
	}
	for _, s := range b.topics[EventAll] {
		s.handler(ev)
	}
}

// Count returns the number of subscribers on a topic.
func (b *EventBus) Count(topic EventType) int {
	return len(b.topics[topic])
}
