package traffic

import "gonum.org/v1/gonum/spatial/r3"

type EventType int

const (
	EventAgentSpawned EventType = iota
	EventAgentRecycled
	EventHandoffStarted
	EventHandoffEnded
	EventGraphBuilt
)

type Event struct {
	Type  EventType
	Agent int // Agent ID, -1 when not about an agent.
	Pos   r3.Vec
	Data  float64 // Impulse magnitude or connection count.
}

type EventHandler func(Event)

// EventBus delivers events synchronously on the emitting goroutine.
type EventBus struct {
	handlers map[EventType][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(t EventType, fn EventHandler) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

func (eb *EventBus) Emit(e Event) {
	if eb == nil {
		return
	}
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}
