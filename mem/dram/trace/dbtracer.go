package trace

import (
	"github.com/sarchlab/dramsched/datarecording"
	"github.com/sarchlab/dramsched/mem/dram"
	"github.com/sarchlab/dramsched/mem/dram/cmdq"
	"github.com/sarchlab/dramsched/mem/dram/org"
	"github.com/sarchlab/dramsched/mem/dram/signal"
	"github.com/sarchlab/dramsched/mem/dram/trans"
	"github.com/sarchlab/dramsched/sim"
)

const (
	commandTable     = "dram_commands"
	transactionTable = "dram_transactions"
)

type commandEntry struct {
	Component     string
	SeqNum        uint64
	Kind          string
	Address       uint64
	Channel       int
	BankID        int
	NumBank       int
	TransactionID string
	IssueCycle    uint64
	CompleteCycle uint64
}

type transactionEntry struct {
	Component  string
	ID         string
	Type       string
	Address    uint64
	Channel    int
	BankID     int
	StartCycle uint64
	EndCycle   uint64
}

// A DBTracer records every command and transaction into a data recorder.
// An entry is written once the command or the transaction completes.
type DBTracer struct {
	recorder   datarecording.DataRecorder
	timeTeller sim.TimeTeller
	freq       sim.Freq

	pendingCmds  map[*signal.Command]*commandEntry
	pendingTrans map[string]*transactionEntry
}

// NewDBTracer creates a DBTracer and the tables it writes to.
func NewDBTracer(
	recorder datarecording.DataRecorder,
	timeTeller sim.TimeTeller,
	freq sim.Freq,
) *DBTracer {
	t := &DBTracer{
		recorder:     recorder,
		timeTeller:   timeTeller,
		freq:         freq,
		pendingCmds:  make(map[*signal.Command]*commandEntry),
		pendingTrans: make(map[string]*transactionEntry),
	}

	recorder.CreateTable(commandTable, commandEntry{})
	recorder.CreateTable(transactionTable, transactionEntry{})

	return t
}

// Func records the item carried by the hook context.
func (t *DBTracer) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case cmdq.HookPosCmdIssue:
		t.startCommand(ctx)
	case org.HookPosCmdComplete:
		t.endCommand(ctx)
	case dram.HookPosTransStart:
		t.startTransaction(ctx)
	case dram.HookPosTransComplete:
		t.endTransaction(ctx)
	}
}

// NumPending returns the number of commands and transactions that have
// started but not completed.
func (t *DBTracer) NumPending() int {
	return len(t.pendingCmds) + len(t.pendingTrans)
}

func (t *DBTracer) cycle() uint64 {
	return t.freq.Cycle(t.timeTeller.CurrentTime())
}

func (t *DBTracer) startCommand(ctx sim.HookCtx) {
	cmd, ok := ctx.Item.(*signal.Command)
	if !ok {
		return
	}

	t.pendingCmds[cmd] = &commandEntry{
		Component:     domainName(ctx.Domain),
		SeqNum:        cmd.SeqNum(),
		Kind:          cmd.KindName(),
		Address:       cmd.Address(),
		Channel:       cmd.Location().Channel,
		BankID:        cmd.BankID(),
		NumBank:       len(cmd.BankIDs()),
		TransactionID: cmd.TransactionID(),
		IssueCycle:    t.cycle(),
	}
}

func (t *DBTracer) endCommand(ctx sim.HookCtx) {
	cmd, ok := ctx.Item.(*signal.Command)
	if !ok {
		return
	}

	entry, found := t.pendingCmds[cmd]
	if !found {
		return
	}

	entry.CompleteCycle = t.cycle()
	t.recorder.InsertData(commandTable, *entry)
	delete(t.pendingCmds, cmd)
}

func (t *DBTracer) startTransaction(ctx sim.HookCtx) {
	tr, ok := ctx.Item.(*trans.Transaction)
	if !ok {
		return
	}

	t.pendingTrans[tr.ID] = &transactionEntry{
		Component:  domainName(ctx.Domain),
		ID:         tr.ID,
		Type:       tr.Type.String(),
		Address:    tr.Address,
		Channel:    tr.Location.Channel,
		BankID:     tr.Location.BankID,
		StartCycle: t.cycle(),
	}
}

func (t *DBTracer) endTransaction(ctx sim.HookCtx) {
	tr, ok := ctx.Item.(*trans.Transaction)
	if !ok {
		return
	}

	entry, found := t.pendingTrans[tr.ID]
	if !found {
		return
	}

	entry.EndCycle = t.cycle()
	t.recorder.InsertData(transactionTable, *entry)
	delete(t.pendingTrans, tr.ID)
}
