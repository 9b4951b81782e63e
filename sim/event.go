package sim

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec float64

// An Event is delivered to its Handler once the engine reaches its time.
type Event interface {
	Time() VTimeInSec
	Handler() Handler
}

// A Handler receives events. An error stops the engine.
type Handler interface {
	Handle(e Event) error
}

// TickEvent wakes a ticking component up at a clock edge.
type TickEvent struct {
	ID string

	time    VTimeInSec
	handler Handler
}

// MakeTickEvent creates a tick for handler at time.
func MakeTickEvent(handler Handler, time VTimeInSec) TickEvent {
	return TickEvent{
		ID:      GetIDGenerator().Generate(),
		time:    time,
		handler: handler,
	}
}

// Time returns the time of the tick.
func (e TickEvent) Time() VTimeInSec {
	return e.time
}

// Handler returns the component being ticked.
func (e TickEvent) Handler() Handler {
	return e.handler
}

// eventQueue orders events by time. Events scheduled for the same time are
// delivered in the order they were scheduled, so that two runs with the same
// configuration tick their components in the same order.
type eventQueue struct {
	entries []queuedEvent
	nextSeq uint64
}

type queuedEvent struct {
	evt Event
	seq uint64
}

func (q *eventQueue) Len() int {
	return len(q.entries)
}

func (q *eventQueue) Less(i, j int) bool {
	a, b := q.entries[i], q.entries[j]
	if a.evt.Time() != b.evt.Time() {
		return a.evt.Time() < b.evt.Time()
	}

	return a.seq < b.seq
}

func (q *eventQueue) Swap(i, j int) {
	q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
}

func (q *eventQueue) Push(x interface{}) {
	q.entries = append(q.entries, x.(queuedEvent))
}

func (q *eventQueue) Pop() interface{} {
	last := q.entries[len(q.entries)-1]
	q.entries = q.entries[:len(q.entries)-1]

	return last
}
