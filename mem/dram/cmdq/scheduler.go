package cmdq

import (
	"fmt"
	"log"

	"github.com/sarchlab/dramsched/mem/dram/signal"
	"github.com/sarchlab/dramsched/sim"
)

// HookPosCmdIssue marks when the scheduler hands a command to the driver.
var HookPosCmdIssue = &sim.HookPos{Name: "CmdQ Issue"}

// A Scheduler owns one command queue per bank and, every tick, issues at most
// one command per channel to the device driver. Banks in a channel are visited
// round-robin.
type Scheduler struct {
	sim.HookableBase

	name              string
	driver            DeviceDriver
	numChannel        int
	numBankPerChannel int
	queueCapacity     int

	queues        [][]*Queue
	nextBankIndex []int
}

// Name returns the name of the scheduler.
func (s *Scheduler) Name() string {
	return s.name
}

// NumChannel returns the number of channels the scheduler serves.
func (s *Scheduler) NumChannel() int {
	return s.numChannel
}

// NumBankPerChannel returns the number of command queues in each channel.
func (s *Scheduler) NumBankPerChannel() int {
	return s.numBankPerChannel
}

// Queue returns the command queue of a bank in a channel.
func (s *Scheduler) Queue(channel, bank int) *Queue {
	return s.queues[channel][bank]
}

// Queues returns all the command queues, channel by channel.
func (s *Scheduler) Queues() []*Queue {
	qs := make([]*Queue, 0, s.numChannel*s.numBankPerChannel)
	for _, chQueues := range s.queues {
		qs = append(qs, chQueues...)
	}

	return qs
}

// NextBankIndex returns the bank that the next scan of the channel starts
// with.
func (s *Scheduler) NextBankIndex(channel int) int {
	return s.nextBankIndex[channel]
}

// Pending returns the number of commands waiting in all the queues.
func (s *Scheduler) Pending() int {
	n := 0
	for _, q := range s.Queues() {
		n += q.Size()
	}

	return n
}

// Push puts the command into the queue of its bank. It returns false if that
// queue is full. Push does not consult the driver.
func (s *Scheduler) Push(cmd *signal.Command) bool {
	q := s.queueOf(cmd.Location().Channel, cmd.BankID())

	return q.TryPush(cmd)
}

// GetToken returns the number of free slots in the queue that the address
// maps to. Producers check the token before generating commands, but Push is
// still the final word.
func (s *Scheduler) GetToken(loc *signal.Location) int {
	q := s.queueOf(loc.Channel, loc.BankID)

	return q.Capacity() - q.Size()
}

// Bank IDs are interleaved across channels, so the bank within the channel is
// the bank ID divided by the number of channels.
func (s *Scheduler) queueOf(channel, bankID int) *Queue {
	bank := bankID / s.numChannel

	if channel < 0 || channel >= s.numChannel ||
		bank < 0 || bank >= s.numBankPerChannel {
		log.Panicf("%s: bank %d of channel %d does not map to a queue",
			s.name, bankID, channel)
	}

	return s.queues[channel][bank]
}

// Tick issues at most one command per channel.
func (s *Scheduler) Tick() (madeProgress bool) {
	for ch := 0; ch < s.numChannel; ch++ {
		madeProgress = s.issueInChannel(ch) || madeProgress
	}

	return madeProgress
}

func (s *Scheduler) issueInChannel(ch int) bool {
	for i := 0; i < s.numBankPerChannel; i++ {
		q := s.queues[ch][s.nextBankIndex[ch]]
		issued := s.tryIssueHead(q)

		// The cursor moves on whether or not the bank issued.
		s.nextBankIndex[ch] = (s.nextBankIndex[ch] + 1) % s.numBankPerChannel

		if issued {
			return true
		}
	}

	return false
}

func (s *Scheduler) tryIssueHead(q *Queue) bool {
	cmd := q.Peek()
	if cmd == nil {
		return false
	}

	if !s.driver.IsCmdAllowed(cmd) {
		return false
	}

	if !s.driver.Push(cmd) {
		return false
	}

	q.Pop()

	if s.NumHooks() > 0 {
		s.InvokeHook(sim.HookCtx{
			Domain: s,
			Pos:    HookPosCmdIssue,
			Item:   cmd,
		})
	}

	return true
}

// SchedulerState is the serializable form of the scheduler's queues and
// round-robin cursors.
type SchedulerState struct {
	NumChannel        int                       `json:"num_channel"`
	NumBankPerChannel int                       `json:"num_bank_per_channel"`
	QueueCapacity     int                       `json:"queue_capacity"`
	NextBankIndex     []int                     `json:"next_bank_index"`
	Queues            [][][]signal.CommandState `json:"queues"`
}

// State captures the queued commands and cursors.
func (s *Scheduler) State() SchedulerState {
	state := SchedulerState{
		NumChannel:        s.numChannel,
		NumBankPerChannel: s.numBankPerChannel,
		QueueCapacity:     s.queueCapacity,
		NextBankIndex:     make([]int, s.numChannel),
		Queues:            make([][][]signal.CommandState, s.numChannel),
	}

	copy(state.NextBankIndex, s.nextBankIndex)

	for ch, chQueues := range s.queues {
		state.Queues[ch] = make([][]signal.CommandState, len(chQueues))

		for b, q := range chQueues {
			cmds := make([]signal.CommandState, 0, q.Size())
			for _, cmd := range q.commands {
				cmds = append(cmds, cmd.State())
			}

			state.Queues[ch][b] = cmds
		}
	}

	return state
}

// SetState replaces the queued commands and cursors. The state must come from
// a scheduler with the same organization.
func (s *Scheduler) SetState(state SchedulerState) error {
	err := s.checkStateShape(state)
	if err != nil {
		return err
	}

	restored := make([][][]*signal.Command, s.numChannel)
	for ch := range state.Queues {
		restored[ch] = make([][]*signal.Command, s.numBankPerChannel)

		for b, cmdStates := range state.Queues[ch] {
			if len(cmdStates) > s.queueCapacity {
				return fmt.Errorf("queue [%d][%d] holds %d commands, "+
					"capacity is %d", ch, b, len(cmdStates), s.queueCapacity)
			}

			for _, cs := range cmdStates {
				cmd, err := signal.CommandFromState(cs)
				if err != nil {
					return err
				}

				restored[ch][b] = append(restored[ch][b], cmd)
			}
		}
	}

	for ch := range restored {
		for b, cmds := range restored[ch] {
			q := s.queues[ch][b]
			q.clear()
			q.commands = cmds
		}
	}

	copy(s.nextBankIndex, state.NextBankIndex)

	return nil
}

func (s *Scheduler) checkStateShape(state SchedulerState) error {
	if state.NumChannel != s.numChannel ||
		state.NumBankPerChannel != s.numBankPerChannel {
		return fmt.Errorf(
			"state has %d channels x %d banks, scheduler has %d x %d",
			state.NumChannel, state.NumBankPerChannel,
			s.numChannel, s.numBankPerChannel)
	}

	if len(state.NextBankIndex) != s.numChannel ||
		len(state.Queues) != s.numChannel {
		return fmt.Errorf("state is missing channels")
	}

	for ch := range state.Queues {
		if len(state.Queues[ch]) != s.numBankPerChannel {
			return fmt.Errorf("state of channel %d is missing banks", ch)
		}

		idx := state.NextBankIndex[ch]
		if idx < 0 || idx >= s.numBankPerChannel {
			return fmt.Errorf("cursor %d of channel %d is out of range",
				idx, ch)
		}
	}

	return nil
}
