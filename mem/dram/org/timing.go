package org

import "github.com/sarchlab/dramsched/mem/dram/signal"

// Timing defines how many cycles a command occupies its banks.
type Timing struct {
	Activate  int `json:"activate" yaml:"activate"`
	Read      int `json:"read" yaml:"read"`
	Write     int `json:"write" yaml:"write"`
	Precharge int `json:"precharge" yaml:"precharge"`
	Refresh   int `json:"refresh" yaml:"refresh"`
}

// DefaultTiming roughly follows a DDR4-3200 device with tRCD=tRP=22, tCL=22,
// tCWL=16, a burst of 4 cycles and tRFC=560.
var DefaultTiming = Timing{
	Activate:  22,
	Read:      26,
	Write:     20,
	Precharge: 22,
	Refresh:   560,
}

func (t Timing) cyclesOf(kind signal.CommandKind) int {
	switch kind {
	case signal.CmdKindActivate:
		return t.Activate
	case signal.CmdKindRead:
		return t.Read
	case signal.CmdKindReadPrecharge:
		return t.Read + t.Precharge
	case signal.CmdKindWrite:
		return t.Write
	case signal.CmdKindWritePrecharge:
		return t.Write + t.Precharge
	case signal.CmdKindPrecharge, signal.CmdKindPrechargeAll:
		return t.Precharge
	case signal.CmdKindRefresh:
		return t.Refresh
	default:
		return 1
	}
}
