package dram

import (
	"log"

	"github.com/rs/zerolog"
	"github.com/sarchlab/dramsched/mem/dram/addressmapping"
	"github.com/sarchlab/dramsched/mem/dram/cmdq"
	"github.com/sarchlab/dramsched/mem/dram/org"
	"github.com/sarchlab/dramsched/mem/dram/trans"
	"github.com/sarchlab/dramsched/sim"
)

// Builder can build new memory controllers.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
	logger zerolog.Logger
	hooks  []sim.Hook

	protocol             Protocol
	transactionQueueSize int
	commandQueueSize     int
	maxInflight          int
	busWidth             int
	burstLength          int
	numChannel           int
	numRank              int
	numBankGroup         int
	numBank              int
	numRow               int
	numCol               int

	burstCycle int
	tCL        int
	tCWL       int
	tRCD       int
	tRCDRD     int
	tRP        int
	tRFC       int
	tREFI      int
}

// MakeBuilder creates a builder with default configuration.
func MakeBuilder() Builder {
	return Builder{
		freq:                 1600 * sim.MHz,
		logger:               zerolog.Nop(),
		protocol:             DDR4,
		transactionQueueSize: 32,
		commandQueueSize:     cmdq.DefaultCommandQueueSize,
		maxInflight:          64,
		busWidth:             64,
		burstLength:          8,
		numChannel:           1,
		numRank:              1,
		numBankGroup:         1,
		numBank:              8,
		numRow:               32768,
		numCol:               1024,
		burstCycle:           4,
		tCL:                  22,
		tCWL:                 16,
		tRCD:                 22,
		tRCDRD:               24,
		tRP:                  22,
		tRFC:                 560,
		tREFI:                12480,
	}
}

// WithEngine sets the engine that drives the memory controller.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the memory controller.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithLogger sets the logger for configuration warnings.
func (b Builder) WithLogger(logger zerolog.Logger) Builder {
	b.logger = logger
	return b
}

// WithProtocol sets the protocol of the memory controller.
func (b Builder) WithProtocol(protocol Protocol) Builder {
	b.protocol = protocol
	return b
}

// WithTransactionQueueSize sets the number of transactions can be buffered
// before converting them into commands.
func (b Builder) WithTransactionQueueSize(n int) Builder {
	b.transactionQueueSize = n
	return b
}

// WithCommandQueueSize sets the number of command that each command queue
// can hold.
func (b Builder) WithCommandQueueSize(n int) Builder {
	b.commandQueueSize = n
	return b
}

// WithMaxInflight sets the number of commands the device serves at the same
// time.
func (b Builder) WithMaxInflight(n int) Builder {
	b.maxInflight = n
	return b
}

// WithBusWidth sets the number of bits can be transferred out of the banks
// at the same time.
func (b Builder) WithBusWidth(n int) Builder {
	b.busWidth = n
	return b
}

// WithBurstLength sets the number of access (each access manipulates the amount
// of data that equals the bus width) that takes place as one group.
func (b Builder) WithBurstLength(n int) Builder {
	b.burstLength = n
	return b
}

// WithNumChannel sets the channels that the memory controller controls.
func (b Builder) WithNumChannel(n int) Builder {
	b.numChannel = n
	return b
}

// WithNumRank sets the number of ranks in each channel.
func (b Builder) WithNumRank(n int) Builder {
	b.numRank = n
	return b
}

// WithNumBankGroup sets the number of bank groups in each rank.
func (b Builder) WithNumBankGroup(n int) Builder {
	b.numBankGroup = n
	return b
}

// WithNumBank sets the number of banks in each bank group.
func (b Builder) WithNumBank(n int) Builder {
	b.numBank = n
	return b
}

// WithNumRow sets the number of rows in each DRAM array.
func (b Builder) WithNumRow(n int) Builder {
	b.numRow = n
	return b
}

// WithNumCol sets the number of columns in each DRAM array.
func (b Builder) WithNumCol(n int) Builder {
	b.numCol = n
	return b
}

// WithBurstCycle sets the number of cycles that a burst occupies the data
// bus.
func (b Builder) WithBurstCycle(cycle int) Builder {
	b.burstCycle = cycle
	return b
}

// WithTCL sets the column access strobe latency in cycles
func (b Builder) WithTCL(cycle int) Builder {
	b.tCL = cycle
	return b
}

// WithTCWL sets the column write strobe latency in cycles
func (b Builder) WithTCWL(cycle int) Builder {
	b.tCWL = cycle
	return b
}

// WithTRCD sets the row-to-column delay in cycles.
func (b Builder) WithTRCD(cycle int) Builder {
	b.tRCD = cycle
	return b
}

// WithTRCDRD sets the activate to read latency in cycles. It only works for
// GDDR and HBM DRAMs.
func (b Builder) WithTRCDRD(cycle int) Builder {
	b.tRCDRD = cycle
	return b
}

// WithTRP sets the row precharge latency in cycles.
func (b Builder) WithTRP(cycle int) Builder {
	b.tRP = cycle
	return b
}

// WithRFC sets the refresh cycle time in cycles.
func (b Builder) WithRFC(cycle int) Builder {
	b.tRFC = cycle
	return b
}

// WithTREFI sets the refresh interval in cycles. Zero disables refresh.
func (b Builder) WithTREFI(cycle int) Builder {
	b.tREFI = cycle
	return b
}

// WithAdditionalHooks adds the given hook to the memory controller, the
// scheduler, and the device.
func (b Builder) WithAdditionalHooks(h sim.Hook) Builder {
	b.hooks = append(b.hooks, h)
	return b
}

// Build builds a new memory controller.
func (b Builder) Build(name string) *Comp {
	if b.engine == nil {
		log.Panicf("%s: an engine is required", name)
	}

	m := &Comp{table: trans.NewTable()}
	m.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, m)

	numBankPerChannel := b.numRank * b.numBankGroup * b.numBank

	m.driver = org.MakeBuilder().
		WithNumChannel(b.numChannel).
		WithNumBankPerChannel(numBankPerChannel).
		WithMaxInflight(b.maxInflight).
		WithTiming(b.generateTiming()).
		WithCompletionListener(m).
		Build(name + ".Driver")

	m.scheduler = cmdq.MakeBuilder().
		WithDriver(m.driver).
		WithCommandQueueSize(b.commandQueueSize).
		WithLogger(b.logger).
		Build(name + ".Scheduler")

	m.addrMapper = addressmapping.MakeBuilder().
		WithBurstLength(b.burstLength).
		WithBusWidth(b.busWidth).
		WithNumChannel(b.numChannel).
		WithNumRank(b.numRank).
		WithNumBankGroup(b.numBankGroup).
		WithNumBank(b.numBank).
		WithNumCol(b.numCol).
		WithNumRow(b.numRow).
		Build()

	seq := &trans.SeqCounter{}
	m.generator = trans.NewGenerator(
		b.transactionQueueSize,
		&trans.ClosePageCommandCreator{Seq: seq},
		m.scheduler)

	if b.tREFI > 0 {
		m.refresher = trans.NewRefresher(
			uint64(b.tREFI),
			b.numChannel, numBankPerChannel,
			seq, m.scheduler, m)
	}

	b.attachHooks(m)
	b.attachHooks(m.scheduler)
	b.attachHooks(m.driver)

	return m
}

func (b Builder) attachHooks(hookable sim.Hookable) {
	for _, hook := range b.hooks {
		hookable.AcceptHook(hook)
	}
}

func (b Builder) generateTiming() org.Timing {
	activate := b.tRCD
	if b.protocol.isGDDR() || b.protocol.isHBM() {
		activate = b.tRCDRD
	}

	return org.Timing{
		Activate:  activate,
		Read:      b.tCL + b.burstCycle,
		Write:     b.tCWL + b.burstCycle,
		Precharge: b.tRP,
		Refresh:   b.tRFC,
	}
}
