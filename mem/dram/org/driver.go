// Package org models the organization of the DRAM device: channels, their
// command buses, and banks.
package org

import (
	"log"

	"github.com/sarchlab/dramsched/mem/dram/signal"
	"github.com/sarchlab/dramsched/sim"
)

// HookPosCmdComplete marks when a command finishes in the device.
var HookPosCmdComplete = &sim.HookPos{Name: "DRAM Cmd Complete"}

// A CompletionListener is notified when a command finishes.
type CompletionListener interface {
	CommandCompleted(cmd *signal.Command)
}

type inflightCmd struct {
	cmd        *signal.Command
	cyclesLeft int
}

// Driver is a structural model of the DRAM device. Each channel has a command
// bus that carries one command per cycle, and each bank serves one command at
// a time. Electrical timing between commands is not modeled.
type Driver struct {
	sim.HookableBase

	name              string
	numChannel        int
	numBankPerChannel int
	maxInflight       int
	timing            Timing
	listener          CompletionListener

	busUsed  []bool
	bankBusy []bool
	inflight []*inflightCmd

	numIssued    []uint64
	numCompleted uint64
}

// Name returns the name of the driver.
func (d *Driver) Name() string {
	return d.name
}

// NumChannel returns the number of channels.
func (d *Driver) NumChannel() int {
	return d.numChannel
}

// TotalNumBank returns the number of banks across all the channels.
func (d *Driver) TotalNumBank() int {
	return d.numChannel * d.numBankPerChannel
}

// SetCompletionListener sets the object to notify when commands finish.
func (d *Driver) SetCompletionListener(l CompletionListener) {
	d.listener = l
}

// IsCmdAllowed returns true if the command bus of the channel is free in the
// current cycle and all the banks that the command targets are idle.
func (d *Driver) IsCmdAllowed(cmd *signal.Command) bool {
	if d.busUsed[d.channelOf(cmd)] {
		return false
	}

	for _, id := range cmd.BankIDs() {
		if d.bankBusy[d.bankIndex(id)] {
			return false
		}
	}

	return true
}

// Push starts the command. It returns false if the device already has as many
// commands in flight as it can track.
func (d *Driver) Push(cmd *signal.Command) bool {
	if len(d.inflight) >= d.maxInflight {
		return false
	}

	ch := d.channelOf(cmd)
	d.busUsed[ch] = true
	d.numIssued[ch]++

	for _, id := range cmd.BankIDs() {
		d.bankBusy[d.bankIndex(id)] = true
	}

	d.inflight = append(d.inflight, &inflightCmd{
		cmd:        cmd,
		cyclesLeft: d.timing.cyclesOf(cmd.Kind()),
	})

	return true
}

// Tick moves the device forward by one cycle.
func (d *Driver) Tick() (madeProgress bool) {
	for ch := range d.busUsed {
		if d.busUsed[ch] {
			d.busUsed[ch] = false
			madeProgress = true
		}
	}

	remaining := d.inflight[:0]
	for _, c := range d.inflight {
		c.cyclesLeft--
		madeProgress = true

		if c.cyclesLeft > 0 {
			remaining = append(remaining, c)
			continue
		}

		d.complete(c.cmd)
	}

	for i := len(remaining); i < len(d.inflight); i++ {
		d.inflight[i] = nil
	}

	d.inflight = remaining

	return madeProgress
}

func (d *Driver) complete(cmd *signal.Command) {
	for _, id := range cmd.BankIDs() {
		d.bankBusy[d.bankIndex(id)] = false
	}

	if cmd.Kind().IsColumnAccess() {
		cmd.SetResponseReady(true)
	}

	d.numCompleted++

	if d.NumHooks() > 0 {
		d.InvokeHook(sim.HookCtx{
			Domain: d,
			Pos:    HookPosCmdComplete,
			Item:   cmd,
		})
	}

	if d.listener != nil {
		d.listener.CommandCompleted(cmd)
	}
}

// NumInflight returns the number of commands being served.
func (d *Driver) NumInflight() int {
	return len(d.inflight)
}

// NumIssued returns the number of commands accepted on the channel.
func (d *Driver) NumIssued(channel int) uint64 {
	return d.numIssued[channel]
}

// NumCompleted returns the number of commands that have finished.
func (d *Driver) NumCompleted() uint64 {
	return d.numCompleted
}

func (d *Driver) channelOf(cmd *signal.Command) int {
	ch := cmd.Location().Channel
	if ch < 0 || ch >= d.numChannel {
		log.Panicf("%s: channel %d does not exist", d.name, ch)
	}

	return ch
}

func (d *Driver) bankIndex(bankID int) int {
	if bankID < 0 || bankID >= len(d.bankBusy) {
		log.Panicf("%s: bank %d does not exist", d.name, bankID)
	}

	return bankID
}
