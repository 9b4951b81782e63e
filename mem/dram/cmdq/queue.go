// Package cmdq provides the per-bank command queues and the scheduler that
// arbitrates which queued command is sent to the device driver.
package cmdq

import (
	"github.com/sarchlab/dramsched/mem/dram/signal"
	"github.com/sarchlab/dramsched/sim"
)

// HookPosQueuePush marks when a command is pushed into a command queue.
var HookPosQueuePush = &sim.HookPos{Name: "CmdQ Push"}

// HookPosQueuePop marks when a command leaves a command queue.
var HookPosQueuePop = &sim.HookPos{Name: "CmdQ Pop"}

// A Queue is a bounded FIFO of commands that target the same bank. Commands
// are never reordered, since the order encodes program order for the bank.
type Queue struct {
	sim.HookableBase

	name     string
	capacity int
	commands []*signal.Command
}

// NewQueue creates a queue that holds at most capacity commands.
func NewQueue(name string, capacity int) *Queue {
	sim.NameMustBeValid(name)

	return &Queue{
		name:     name,
		capacity: capacity,
	}
}

// Name returns the name of the queue.
func (q *Queue) Name() string {
	return q.name
}

// CanPush returns true if the queue still has a free slot.
func (q *Queue) CanPush() bool {
	return len(q.commands) < q.capacity
}

// TryPush appends the command at the tail. It returns false and leaves the
// queue untouched if the queue is full.
func (q *Queue) TryPush(cmd *signal.Command) bool {
	if !q.CanPush() {
		return false
	}

	q.commands = append(q.commands, cmd)

	if q.NumHooks() > 0 {
		q.InvokeHook(sim.HookCtx{
			Domain: q,
			Pos:    HookPosQueuePush,
			Item:   cmd,
		})
	}

	return true
}

// Peek returns the command at the head, or nil if the queue is empty.
func (q *Queue) Peek() *signal.Command {
	if len(q.commands) == 0 {
		return nil
	}

	return q.commands[0]
}

// Pop removes the command at the head. The caller should have decided that
// the head can leave by peeking it first.
func (q *Queue) Pop() *signal.Command {
	if len(q.commands) == 0 {
		return nil
	}

	cmd := q.commands[0]
	q.commands[0] = nil
	q.commands = q.commands[1:]

	if q.NumHooks() > 0 {
		q.InvokeHook(sim.HookCtx{
			Domain: q,
			Pos:    HookPosQueuePop,
			Item:   cmd,
		})
	}

	return cmd
}

// Size returns the number of commands in the queue.
func (q *Queue) Size() int {
	return len(q.commands)
}

// Capacity returns the maximum number of commands the queue can hold.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Commands returns the queued commands from head to tail.
func (q *Queue) Commands() []*signal.Command {
	cmds := make([]*signal.Command, len(q.commands))
	copy(cmds, q.commands)

	return cmds
}

func (q *Queue) clear() {
	q.commands = nil
}
