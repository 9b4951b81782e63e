package trans

import (
	"github.com/sarchlab/dramsched/mem/dram/signal"
)

// A CommandSink accepts commands and tells how much room it has for a
// location.
type CommandSink interface {
	GetToken(loc *signal.Location) int
	Push(cmd *signal.Command) bool
}

// A Generator buffers transactions and converts them into commands once the
// command queue of the target bank has a free slot. Commands that do not fit
// yet are kept and pushed as the queue drains, so a queue shallower than the
// number of commands per transaction still makes progress.
type Generator struct {
	capacity int
	sink     CommandSink
	creator  CommandCreator

	transactions []*Transaction
	pending      []*signal.Command
}

// NewGenerator creates a generator that buffers at most capacity
// transactions.
func NewGenerator(
	capacity int,
	creator CommandCreator,
	sink CommandSink,
) *Generator {
	return &Generator{
		capacity: capacity,
		creator:  creator,
		sink:     sink,
	}
}

// CanAccept tells if another transaction can be buffered.
func (g *Generator) CanAccept() bool {
	return len(g.transactions) < g.capacity
}

// Accept buffers the transaction. It returns false if the buffer is full.
func (g *Generator) Accept(t *Transaction) bool {
	if !g.CanAccept() {
		return false
	}

	g.transactions = append(g.transactions, t)

	return true
}

// NumBuffered returns the number of transactions that are not converted yet.
func (g *Generator) NumBuffered() int {
	return len(g.transactions)
}

// NumPending returns the number of created commands that still need to be
// pushed.
func (g *Generator) NumPending() int {
	return len(g.pending)
}

// Tick pushes leftover commands or converts the oldest transaction.
func (g *Generator) Tick() (madeProgress bool) {
	if len(g.pending) > 0 {
		return g.pushPending()
	}

	if len(g.transactions) == 0 {
		return false
	}

	t := g.transactions[0]
	if g.sink.GetToken(t.Location) < 1 {
		return false
	}

	g.transactions[0] = nil
	g.transactions = g.transactions[1:]
	g.pending = g.creator.Create(t)
	g.pushPending()

	return true
}

func (g *Generator) pushPending() (madeProgress bool) {
	for len(g.pending) > 0 {
		if !g.sink.Push(g.pending[0]) {
			break
		}

		g.pending = g.pending[1:]
		madeProgress = true
	}

	return madeProgress
}
