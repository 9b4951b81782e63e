package trans

import (
	"log"

	"github.com/sarchlab/dramsched/mem/dram/signal"
)

// A CycleTeller tells the current cycle.
type CycleTeller interface {
	CurrentCycle() uint64
}

// A Refresher periodically refreshes all the banks of each channel. One
// multi-bank REF per channel is created every interval. A REF that the
// command queue rejects is retried on the next tick.
type Refresher struct {
	interval          uint64
	numChannel        int
	numBankPerChannel int
	seq               *SeqCounter
	sink              CommandSink
	clock             CycleTeller

	nextRefreshCycle uint64
	pending          []*signal.Command
	numIssued        uint64
}

// NewRefresher creates a refresher.
func NewRefresher(
	interval uint64,
	numChannel, numBankPerChannel int,
	seq *SeqCounter,
	sink CommandSink,
	clock CycleTeller,
) *Refresher {
	if interval == 0 {
		log.Panic("refresh interval must be positive")
	}

	return &Refresher{
		interval:          interval,
		numChannel:        numChannel,
		numBankPerChannel: numBankPerChannel,
		seq:               seq,
		sink:              sink,
		clock:             clock,
		nextRefreshCycle:  interval,
	}
}

// NumIssued returns the number of REF commands that are accepted by the
// command queues.
func (r *Refresher) NumIssued() uint64 {
	return r.numIssued
}

// NumPending returns the number of REF commands waiting for room.
func (r *Refresher) NumPending() int {
	return len(r.pending)
}

// Tick creates the REF commands that are due and pushes the waiting ones.
func (r *Refresher) Tick() (madeProgress bool) {
	now := r.clock.CurrentCycle()
	if now >= r.nextRefreshCycle {
		for r.nextRefreshCycle <= now {
			r.nextRefreshCycle += r.interval
		}

		for ch := 0; ch < r.numChannel; ch++ {
			r.pending = append(r.pending, r.refreshCommand(ch))
		}
	}

	remaining := r.pending[:0]
	for _, cmd := range r.pending {
		if r.sink.Push(cmd) {
			r.numIssued++
			madeProgress = true

			continue
		}

		remaining = append(remaining, cmd)
	}

	r.pending = remaining

	return madeProgress
}

// The bank IDs of a channel are interleaved with the other channels.
func (r *Refresher) refreshCommand(ch int) *signal.Command {
	bankIDs := make([]int, r.numBankPerChannel)
	for b := range bankIDs {
		bankIDs[b] = b*r.numChannel + ch
	}

	loc := &signal.Location{Channel: ch, BankID: bankIDs[0]}

	return signal.NewMultiBankCommand(
		r.seq.Next(), signal.CmdKindRefresh, 0, loc, bankIDs)
}
