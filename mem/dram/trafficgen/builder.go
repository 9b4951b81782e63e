package trafficgen

import (
	"log"
	"math/rand"

	"github.com/rs/zerolog"
	"github.com/sarchlab/dramsched/sim"
)

// Builder can build traffic agents.
type Builder struct {
	engine     sim.Engine
	freq       sim.Freq
	logger     zerolog.Logger
	target     Target
	seed       int64
	numAccess  int
	maxAddress uint64
	alignment  uint64
	writeRatio float64
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:       1 * sim.GHz,
		logger:     zerolog.Nop(),
		seed:       1,
		numAccess:  1000,
		maxAddress: 1 << 20,
		alignment:  64,
		writeRatio: 0.5,
	}
}

// WithEngine sets the engine that drives the agent.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency that the agent works at.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithLogger sets the logger that reports each access at trace level.
func (b Builder) WithLogger(logger zerolog.Logger) Builder {
	b.logger = logger
	return b
}

// WithTarget sets the memory controller that receives the accesses.
func (b Builder) WithTarget(t Target) Builder {
	b.target = t
	return b
}

// WithSeed sets the seed of the random number generator.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithNumAccess sets the number of accesses to issue.
func (b Builder) WithNumAccess(n int) Builder {
	b.numAccess = n
	return b
}

// WithMaxAddress sets the upper bound, exclusive, of the addresses.
func (b Builder) WithMaxAddress(addr uint64) Builder {
	b.maxAddress = addr
	return b
}

// WithAlignment sets the granularity of the addresses, in bytes.
func (b Builder) WithAlignment(n uint64) Builder {
	b.alignment = n
	return b
}

// WithWriteRatio sets the probability that an access is a write.
func (b Builder) WithWriteRatio(r float64) Builder {
	b.writeRatio = r
	return b
}

// Build creates a new agent.
func (b Builder) Build(name string) *Agent {
	if b.engine == nil {
		log.Panic("engine is not set")
	}

	if b.target == nil {
		log.Panic("target is not set")
	}

	if b.alignment == 0 || b.maxAddress < b.alignment {
		log.Panicf("max address %d cannot hold a %d-byte access",
			b.maxAddress, b.alignment)
	}

	a := &Agent{
		target:     b.target,
		rng:        rand.New(rand.NewSource(b.seed)),
		logger:     b.logger,
		maxAddress: b.maxAddress,
		alignment:  b.alignment,
		writeRatio: b.writeRatio,
		left:       b.numAccess,
		pending:    make(map[string]uint64),
	}
	a.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, a)

	return a
}
