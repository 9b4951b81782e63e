package org

import (
	"log"

	"github.com/sarchlab/dramsched/sim"
)

// Builder can build drivers.
type Builder struct {
	numChannel        int
	numBankPerChannel int
	maxInflight       int
	timing            Timing
	listener          CompletionListener
	hooks             []sim.Hook
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numChannel:        1,
		numBankPerChannel: 8,
		maxInflight:       64,
		timing:            DefaultTiming,
	}
}

// WithNumChannel sets the number of channels.
func (b Builder) WithNumChannel(n int) Builder {
	b.numChannel = n
	return b
}

// WithNumBankPerChannel sets the number of banks in each channel.
func (b Builder) WithNumBankPerChannel(n int) Builder {
	b.numBankPerChannel = n
	return b
}

// WithMaxInflight sets how many commands the device can serve at the same
// time.
func (b Builder) WithMaxInflight(n int) Builder {
	b.maxInflight = n
	return b
}

// WithTiming sets the bank occupancy of each command kind.
func (b Builder) WithTiming(t Timing) Builder {
	b.timing = t
	return b
}

// WithCompletionListener sets the object to notify when commands finish.
func (b Builder) WithCompletionListener(l CompletionListener) Builder {
	b.listener = l
	return b
}

// WithAdditionalHooks adds a hook to the driver.
func (b Builder) WithAdditionalHooks(h sim.Hook) Builder {
	b.hooks = append(b.hooks, h)
	return b
}

// Build creates a new driver.
func (b Builder) Build(name string) *Driver {
	sim.NameMustBeValid(name)

	if b.numChannel <= 0 || b.numBankPerChannel <= 0 {
		log.Panicf("%s: needs at least one channel and one bank", name)
	}

	if b.maxInflight <= 0 {
		log.Panicf("%s: max inflight must be positive", name)
	}

	numBank := b.numChannel * b.numBankPerChannel

	d := &Driver{
		name:              name,
		numChannel:        b.numChannel,
		numBankPerChannel: b.numBankPerChannel,
		maxInflight:       b.maxInflight,
		timing:            b.timing,
		listener:          b.listener,
		busUsed:           make([]bool, b.numChannel),
		bankBusy:          make([]bool, numBank),
		numIssued:         make([]uint64, b.numChannel),
	}

	for _, h := range b.hooks {
		d.AcceptHook(h)
	}

	return d
}
