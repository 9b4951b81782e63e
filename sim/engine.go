package sim

import (
	"container/heap"
	"log"
	"sync"
)

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller

	Schedule(e Event)
}

// An Engine delivers events in time order until none are left. The monitor
// pauses and resumes it from other goroutines.
type Engine interface {
	Hookable
	EventScheduler

	Run() error
	Pause()
	Continue()
}

// HookPosBeforeEvent is invoked on the engine right before an event is
// handled. The hook sees the engine time already moved to the event.
var HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}

// SerialEngine handles one event at a time on the goroutine that calls Run.
type SerialEngine struct {
	HookableBase

	lock     sync.Mutex
	cond     *sync.Cond
	now      VTimeInSec
	queue    eventQueue
	paused   bool
	handling bool
	handled  uint64

	runLock sync.Mutex
}

// NewSerialEngine creates a SerialEngine at time 0.
func NewSerialEngine() *SerialEngine {
	e := &SerialEngine{}
	e.cond = sync.NewCond(&e.lock)

	return e
}

// Name returns the name of the engine.
func (e *SerialEngine) Name() string {
	return "Engine"
}

// Schedule adds an event. Events in the past are a programming error.
func (e *SerialEngine) Schedule(evt Event) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if evt.Time() < e.now {
		log.Panicf("cannot schedule an event at %.10f, now is %.10f",
			evt.Time(), e.now)
	}

	heap.Push(&e.queue, queuedEvent{evt: evt, seq: e.queue.nextSeq})
	e.queue.nextSeq++
}

// CurrentTime returns the time of the event being handled, or of the last
// one handled.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.now
}

// NumHandled returns the number of events handled so far.
func (e *SerialEngine) NumHandled() uint64 {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.handled
}

// Run handles events until the queue is empty or a handler fails.
func (e *SerialEngine) Run() error {
	e.runLock.Lock()
	defer e.runLock.Unlock()

	for {
		evt := e.startNext()
		if evt == nil {
			return nil
		}

		if e.NumHooks() > 0 {
			e.InvokeHook(HookCtx{
				Domain: e,
				Pos:    HookPosBeforeEvent,
				Item:   evt,
			})
		}

		err := evt.Handler().Handle(evt)

		e.finishCurrent()

		if err != nil {
			return err
		}
	}
}

// startNext waits while the engine is paused, then pops the earliest event
// and moves the time to it.
func (e *SerialEngine) startNext() Event {
	e.lock.Lock()
	defer e.lock.Unlock()

	for e.paused {
		e.cond.Wait()
	}

	if e.queue.Len() == 0 {
		return nil
	}

	evt := heap.Pop(&e.queue).(queuedEvent).evt
	e.now = evt.Time()
	e.handling = true

	return evt
}

func (e *SerialEngine) finishCurrent() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.handling = false
	e.handled++
	e.cond.Broadcast()
}

// Pause stops the engine before its next event. It returns once the event
// being handled, if any, is done, so the caller sees a consistent state.
func (e *SerialEngine) Pause() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.paused = true

	for e.handling {
		e.cond.Wait()
	}
}

// Continue resumes a paused engine.
func (e *SerialEngine) Continue() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.paused = false
	e.cond.Broadcast()
}
