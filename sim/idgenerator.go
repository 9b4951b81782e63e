package sim

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

var (
	idGeneratorLock sync.Mutex
	idGenerator     IDGenerator = &sequentialIDGenerator{}
)

// IDGenerator hands out the IDs of transactions, events and progress bars.
type IDGenerator interface {
	Generate() string
}

// UseSequentialIDGenerator numbers IDs 1, 2, 3 and so on. Two runs with the
// same configuration get the same IDs. This is the default.
func UseSequentialIDGenerator() {
	useIDGenerator(&sequentialIDGenerator{})
}

// UseParallelIDGenerator switches to globally unique IDs, so that the
// recordings of several runs can share a database. Call it before the
// simulation is built.
func UseParallelIDGenerator() {
	useIDGenerator(parallelIDGenerator{})
}

func useIDGenerator(g IDGenerator) {
	idGeneratorLock.Lock()
	defer idGeneratorLock.Unlock()

	idGenerator = g
}

// GetIDGenerator returns the generator in use.
func GetIDGenerator() IDGenerator {
	idGeneratorLock.Lock()
	defer idGeneratorLock.Unlock()

	return idGenerator
}

type sequentialIDGenerator struct {
	last uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(atomic.AddUint64(&g.last, 1), 10)
}

type parallelIDGenerator struct{}

func (parallelIDGenerator) Generate() string {
	return xid.New().String()
}
