package trans

import (
	"github.com/sarchlab/dramsched/mem/dram/signal"
)

// A SeqCounter hands out command sequence numbers. Sequence numbers increase
// monotonically across all the commands of a memory controller.
type SeqCounter struct {
	next uint64
}

// Next returns a new sequence number.
func (c *SeqCounter) Next() uint64 {
	n := c.next
	c.next++

	return n
}

// A CommandCreator can convert a transaction to commands.
type CommandCreator interface {
	Create(t *Transaction) []*signal.Command
}

// ClosePageCommandCreator opens the row for every access and closes it again
// with an auto-precharge column command.
type ClosePageCommandCreator struct {
	Seq *SeqCounter
}

// Create returns an ACT followed by a READA or WRITEA.
func (c *ClosePageCommandCreator) Create(t *Transaction) []*signal.Command {
	access := signal.CmdKindReadPrecharge
	if t.Type == TransactionTypeWrite {
		access = signal.CmdKindWritePrecharge
	}

	act := signal.NewCommand(
		c.Seq.Next(), signal.CmdKindActivate, t.Address, t.Location).
		WithTransaction(t.ID)
	col := signal.NewCommand(c.Seq.Next(), access, t.Address, t.Location).
		WithTransaction(t.ID)

	return []*signal.Command{act, col}
}
