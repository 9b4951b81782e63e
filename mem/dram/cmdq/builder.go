package cmdq

import (
	"fmt"
	"log"

	"github.com/rs/zerolog"
)

// DefaultCommandQueueSize is the number of commands each bank queue holds when
// the size is not configured.
const DefaultCommandQueueSize = 32

// Builder can build command schedulers.
type Builder struct {
	driver           DeviceDriver
	commandQueueSize int
	logger           zerolog.Logger
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		commandQueueSize: DefaultCommandQueueSize,
		logger:           zerolog.Nop(),
	}
}

// WithDriver sets the device driver that the scheduler issues commands to.
// The organization of the scheduler is taken from the driver.
func (b Builder) WithDriver(driver DeviceDriver) Builder {
	b.driver = driver
	return b
}

// WithCommandQueueSize sets the number of commands each bank queue can hold.
// A non-positive value falls back to the default size.
func (b Builder) WithCommandQueueSize(n int) Builder {
	b.commandQueueSize = n
	return b
}

// WithLogger sets the logger that reports configuration issues.
func (b Builder) WithLogger(logger zerolog.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates a new scheduler.
func (b Builder) Build(name string) *Scheduler {
	if b.driver == nil {
		log.Panicf("%s: a device driver is required", name)
	}

	numBank := b.driver.TotalNumBank()
	numChannel := b.driver.NumChannel()

	if numBank <= 0 {
		log.Panicf("%s: total number of banks must be positive, got %d",
			name, numBank)
	}

	if numChannel <= 0 {
		log.Panicf("%s: number of channels must be positive, got %d",
			name, numChannel)
	}

	if numBank < numChannel {
		log.Panicf("%s: %d banks cannot be shared by %d channels",
			name, numBank, numChannel)
	}

	queueSize := b.commandQueueSize
	if queueSize <= 0 {
		b.logger.Warn().
			Str("component", name).
			Int("default", DefaultCommandQueueSize).
			Msg("numCmdQEntries value is missing, using the default")

		queueSize = DefaultCommandQueueSize
	}

	s := &Scheduler{
		name:              name,
		driver:            b.driver,
		numChannel:        numChannel,
		numBankPerChannel: numBank / numChannel,
		queueCapacity:     queueSize,
		nextBankIndex:     make([]int, numChannel),
	}

	s.queues = make([][]*Queue, numChannel)
	for ch := 0; ch < numChannel; ch++ {
		s.queues[ch] = make([]*Queue, s.numBankPerChannel)

		for bank := 0; bank < s.numBankPerChannel; bank++ {
			qName := fmt.Sprintf("%s.CmdQ[%d][%d]", name, ch, bank)
			s.queues[ch][bank] = NewQueue(qName, queueSize)
		}
	}

	return s
}
