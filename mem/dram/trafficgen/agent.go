// Package trafficgen provides an agent that drives a memory controller with
// random reads and writes.
package trafficgen

import (
	"math/rand"

	"github.com/rs/zerolog"
	"github.com/sarchlab/dramsched/mem/dram/trans"
	"github.com/sarchlab/dramsched/sim"
)

// A Target accepts transactions.
type Target interface {
	CanEnqueue() bool
	Enqueue(addr uint64, isWrite bool) (string, bool)
}

// A ProgressTracker is told when transactions start and finish.
type ProgressTracker interface {
	IncrementInProgress(amount uint64)
	MoveInProgressToFinished(amount uint64)
}

// An Agent issues a fixed number of random accesses to a target, at most one
// per cycle.
type Agent struct {
	*sim.TickingComponent

	target     Target
	rng        *rand.Rand
	logger     zerolog.Logger
	progress   ProgressTracker
	maxAddress uint64
	alignment  uint64
	writeRatio float64

	left         int
	pending      map[string]uint64
	numIssued    int
	numCompleted int
}

// Tick issues the next access if the target can take it.
func (a *Agent) Tick() bool {
	if a.left == 0 {
		return false
	}

	if !a.target.CanEnqueue() {
		return false
	}

	addr := a.rng.Uint64() % (a.maxAddress / a.alignment) * a.alignment
	isWrite := a.rng.Float64() < a.writeRatio

	id, ok := a.target.Enqueue(addr, isWrite)
	if !ok {
		return false
	}

	a.pending[id] = addr
	a.left--
	a.numIssued++

	if a.progress != nil {
		a.progress.IncrementInProgress(1)
	}

	a.logger.Trace().
		Str("agent", a.Name()).
		Str("id", id).
		Uint64("addr", addr).
		Bool("write", isWrite).
		Msg("access issued")

	return true
}

// TransactionCompleted retires an access that the agent issued. The agent
// wakes up, since the target has a free slot again.
func (a *Agent) TransactionCompleted(t *trans.Transaction) {
	if _, ok := a.pending[t.ID]; !ok {
		return
	}

	delete(a.pending, t.ID)
	a.numCompleted++

	if a.progress != nil {
		a.progress.MoveInProgressToFinished(1)
	}

	a.TickLater()
}

// SetProgressTracker sets the tracker that follows the accesses.
func (a *Agent) SetProgressTracker(p ProgressTracker) {
	a.progress = p
}

// NumLeft returns the number of accesses not issued yet.
func (a *Agent) NumLeft() int {
	return a.left
}

// NumIssued returns the number of accesses issued.
func (a *Agent) NumIssued() int {
	return a.numIssued
}

// NumPending returns the number of issued accesses that have not completed.
func (a *Agent) NumPending() int {
	return len(a.pending)
}

// NumCompleted returns the number of accesses that completed.
func (a *Agent) NumCompleted() int {
	return a.numCompleted
}
