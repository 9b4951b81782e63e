// Package trace provides hooks that record the commands and transactions of
// a memory controller.
package trace

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sarchlab/dramsched/mem/dram"
	"github.com/sarchlab/dramsched/mem/dram/cmdq"
	"github.com/sarchlab/dramsched/mem/dram/org"
	"github.com/sarchlab/dramsched/mem/dram/signal"
	"github.com/sarchlab/dramsched/mem/dram/trans"
	"github.com/sarchlab/dramsched/sim"
)

// A LogTracer writes one log entry for every command that is issued to or
// completed by the device.
type LogTracer struct {
	logger     zerolog.Logger
	timeTeller sim.TimeTeller
	freq       sim.Freq
}

// NewLogTracer creates a LogTracer. The cycle of each entry is derived from
// the current time and the frequency of the memory controller.
func NewLogTracer(
	logger zerolog.Logger,
	timeTeller sim.TimeTeller,
	freq sim.Freq,
) *LogTracer {
	return &LogTracer{
		logger:     logger,
		timeTeller: timeTeller,
		freq:       freq,
	}
}

// Func logs the command carried by the hook context.
func (t *LogTracer) Func(ctx sim.HookCtx) {
	var event string

	switch ctx.Pos {
	case cmdq.HookPosCmdIssue:
		event = "issue"
	case org.HookPosCmdComplete:
		event = "complete"
	case dram.HookPosTransStart, dram.HookPosTransComplete:
		t.logTransaction(ctx)
		return
	default:
		return
	}

	cmd, ok := ctx.Item.(*signal.Command)
	if !ok {
		return
	}

	logger := t.logger.With().
		Str("event", event).
		Str("where", domainName(ctx.Domain)).
		Logger()

	cmd.Dump(logger, t.cycle())
}

func (t *LogTracer) logTransaction(ctx sim.HookCtx) {
	tr, ok := ctx.Item.(*trans.Transaction)
	if !ok {
		return
	}

	event := "trans_start"
	if ctx.Pos == dram.HookPosTransComplete {
		event = "trans_complete"
	}

	t.logger.Debug().
		Str("event", event).
		Str("where", domainName(ctx.Domain)).
		Uint64("cycle", t.cycle()).
		Str("id", tr.ID).
		Str("type", tr.Type.String()).
		Str("addr", fmt.Sprintf("0x%x", tr.Address)).
		Msg("transaction")
}

func (t *LogTracer) cycle() uint64 {
	return t.freq.Cycle(t.timeTeller.CurrentTime())
}

func domainName(domain sim.Hookable) string {
	if named, ok := domain.(sim.Named); ok {
		return named.Name()
	}

	return ""
}
