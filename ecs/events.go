package ecs

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

const (
	EventAnimationChanged = "animation_changed"
	EventLanded           = "landed"
	EventLeftGround       = "left_ground"
	EventGhostCrossed     = "ghost_crossed"
)

// AnimationChanged is emitted when an entity's animation is altered.
type AnimationChanged struct {
	Entity Entity
	From   string
	To     string
}

// GroundEvent is emitted when an entity's proximity sensor starts or stops
// reporting a surface.
type GroundEvent struct {
	Entity  Entity
	Surface Entity
}

// GhostCrossed is emitted for every ghost platform a sensor looked through.
type GhostCrossed struct {
	Entity Entity
	Ghost  Entity
}

// EventQueue is a simple FIFO queue. Systems push; the owner of the tick
// drains.
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

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
