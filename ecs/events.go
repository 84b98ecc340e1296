package ecs

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

const (
	EventScanned = "scanned"
	EventEngaged = "engaged"
	EventTarget  = "target_changed"
)

// ScanEvent is emitted after a detector publishes a new classification.
type ScanEvent struct {
	Tick     uint64
	Entity   Entity
	Allies   []Entity
	Enemies  []Entity
	Neutrals []Entity
}

// EngageEvent is emitted while a target sits inside attack range.
type EngageEvent struct {
	Entity   Entity
	Target   Entity
	Distance float64
}

// TargetEvent is emitted when an entity switches targets; Target is zero
// when the entity lost its target.
type TargetEvent struct {
	Entity Entity
	Target Entity
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}
