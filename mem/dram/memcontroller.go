// Package dram provides a memory controller that schedules DRAM commands.
package dram

import (
	"github.com/sarchlab/dramsched/mem/dram/addressmapping"
	"github.com/sarchlab/dramsched/mem/dram/cmdq"
	"github.com/sarchlab/dramsched/mem/dram/org"
	"github.com/sarchlab/dramsched/mem/dram/signal"
	"github.com/sarchlab/dramsched/mem/dram/trans"
	"github.com/sarchlab/dramsched/sim"
)

// HookPosTransStart marks when a transaction is accepted.
var HookPosTransStart = &sim.HookPos{Name: "DRAM Trans Start"}

// HookPosTransComplete marks when the last command of a transaction
// finishes.
var HookPosTransComplete = &sim.HookPos{Name: "DRAM Trans Complete"}

// A TransactionListener is notified when a transaction completes.
type TransactionListener interface {
	TransactionCompleted(t *trans.Transaction)
}

// Comp is a memory controller. It converts transactions into commands, queues
// the commands per bank, and lets the scheduler issue them to the device.
type Comp struct {
	*sim.TickingComponent

	addrMapper addressmapping.Mapper
	table      *trans.Table
	generator  *trans.Generator
	refresher  *trans.Refresher
	scheduler  *cmdq.Scheduler
	driver     *org.Driver

	listeners    []TransactionListener
	numCompleted uint64
}

// Tick updates the memory controller's internal state. The device goes first
// so that banks freed in this cycle can take new commands.
//
// The controller keeps ticking while transactions are outstanding. Refresh
// alone does not keep it ticking, or an idle controller would never let the
// simulation finish.
func (c *Comp) Tick() bool {
	c.driver.Tick()
	c.scheduler.Tick()
	c.generator.Tick()

	if c.refresher != nil {
		c.refresher.Tick()
	}

	return c.table.Len() > 0
}

// CanEnqueue tells if a new transaction can be accepted.
func (c *Comp) CanEnqueue() bool {
	return c.generator.CanAccept()
}

// Enqueue accepts a read or write to the address. It returns the ID of the
// transaction, or false if the transaction buffer is full.
func (c *Comp) Enqueue(addr uint64, isWrite bool) (string, bool) {
	if !c.generator.CanAccept() {
		return "", false
	}

	transType := trans.TransactionTypeRead
	if isWrite {
		transType = trans.TransactionTypeWrite
	}

	t := trans.NewTransaction(transType, addr, c.addrMapper.Map(addr))
	t.IssueCycle = c.CurrentCycle()

	c.generator.Accept(t)
	c.table.Add(t)

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosTransStart,
		Item:   t,
	})

	c.TickLater()

	return t.ID, true
}

// CommandCompleted resolves the transaction of a finished column command.
func (c *Comp) CommandCompleted(cmd *signal.Command) {
	if !cmd.Kind().IsColumnAccess() || cmd.TransactionID() == "" {
		return
	}

	t, ok := c.table.Get(cmd.TransactionID())
	if !ok {
		return
	}

	t.Done = true
	t.CompleteCycle = c.CurrentCycle()
	c.table.Remove(t.ID)
	c.numCompleted++

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosTransComplete,
		Item:   t,
	})

	for _, l := range c.listeners {
		l.TransactionCompleted(t)
	}
}

// AddTransactionListener registers a listener of transaction completion.
func (c *Comp) AddTransactionListener(l TransactionListener) {
	c.listeners = append(c.listeners, l)
}

// Scheduler returns the command scheduler.
func (c *Comp) Scheduler() *cmdq.Scheduler {
	return c.scheduler
}

// Driver returns the device model.
func (c *Comp) Driver() *org.Driver {
	return c.driver
}

// Refresher returns the refresh generator. It is nil if refresh is disabled.
func (c *Comp) Refresher() *trans.Refresher {
	return c.refresher
}

// NumOutstanding returns the number of transactions that are not completed.
func (c *Comp) NumOutstanding() int {
	return c.table.Len()
}

// NumCompleted returns the number of completed transactions.
func (c *Comp) NumCompleted() uint64 {
	return c.numCompleted
}
