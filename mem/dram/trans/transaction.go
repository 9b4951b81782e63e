// Package trans turns memory transactions into DRAM commands and feeds them to
// the command scheduler.
package trans

import (
	"github.com/sarchlab/dramsched/mem/dram/signal"
	"github.com/sarchlab/dramsched/sim"
)

// TransactionType is either read or write.
type TransactionType int

// A list of transaction types.
const (
	TransactionTypeRead TransactionType = iota
	TransactionTypeWrite
)

func (t TransactionType) String() string {
	if t == TransactionTypeWrite {
		return "write"
	}

	return "read"
}

// A Transaction is a read or write request that the memory controller
// received.
type Transaction struct {
	ID       string
	Type     TransactionType
	Address  uint64
	Location *signal.Location

	IssueCycle    uint64
	CompleteCycle uint64
	Done          bool
}

// NewTransaction creates a transaction. Its ID comes from the simulation's ID
// generator.
func NewTransaction(
	t TransactionType,
	addr uint64,
	loc *signal.Location,
) *Transaction {
	return &Transaction{
		ID:       sim.GetIDGenerator().Generate(),
		Type:     t,
		Address:  addr,
		Location: loc,
	}
}

// Table tracks the transactions that have not completed, so that commands
// can refer to their transaction by ID.
type Table struct {
	transactions map[string]*Transaction
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{transactions: make(map[string]*Transaction)}
}

// Add registers a transaction.
func (t *Table) Add(trans *Transaction) {
	t.transactions[trans.ID] = trans
}

// Get looks up a transaction by ID.
func (t *Table) Get(id string) (*Transaction, bool) {
	trans, ok := t.transactions[id]
	return trans, ok
}

// Remove forgets a transaction.
func (t *Table) Remove(id string) {
	delete(t.transactions, id)
}

// Len returns the number of transactions in the table.
func (t *Table) Len() int {
	return len(t.transactions)
}
