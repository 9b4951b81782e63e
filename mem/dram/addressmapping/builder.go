package addressmapping

import (
	"log"
	"math/bits"
)

// A Builder can build address mappers.
//
// Starting from the least significant bit, the address is split into the
// offset within a burst, the column, the channel, the bank, the bank group,
// the rank, and the row.
type Builder struct {
	busWidth      int
	burstLength   int
	numChannel    int
	numRank       int
	numBankGroup  int
	numBank       int
	numRow        int
	numCol        int
	cachelineSize int
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		busWidth:      64,
		burstLength:   8,
		numChannel:    1,
		numRank:       1,
		numBankGroup:  1,
		numBank:       8,
		numRow:        32768,
		numCol:        1024,
		cachelineSize: 64,
	}
}

// WithBusWidth sets the number of bits transferred in each beat.
func (b Builder) WithBusWidth(n int) Builder {
	b.busWidth = n
	return b
}

// WithBurstLength sets the number of beats in a burst.
func (b Builder) WithBurstLength(n int) Builder {
	b.burstLength = n
	return b
}

// WithNumChannel sets the number of channels.
func (b Builder) WithNumChannel(n int) Builder {
	b.numChannel = n
	return b
}

// WithNumRank sets the number of ranks per channel.
func (b Builder) WithNumRank(n int) Builder {
	b.numRank = n
	return b
}

// WithNumBankGroup sets the number of bank groups per rank.
func (b Builder) WithNumBankGroup(n int) Builder {
	b.numBankGroup = n
	return b
}

// WithNumBank sets the number of banks per bank group.
func (b Builder) WithNumBank(n int) Builder {
	b.numBank = n
	return b
}

// WithNumRow sets the number of rows per bank.
func (b Builder) WithNumRow(n int) Builder {
	b.numRow = n
	return b
}

// WithNumCol sets the number of columns per row.
func (b Builder) WithNumCol(n int) Builder {
	b.numCol = n
	return b
}

// WithCachelineSize sets the number of bytes in a cache line.
func (b Builder) WithCachelineSize(n int) Builder {
	b.cachelineSize = n
	return b
}

// Build creates the mapper.
func (b Builder) Build() Mapper {
	m := defaultAddrMapper{
		numChannel:   b.numChannel,
		numBankGroup: b.numBankGroup,
		numBank:      b.numBank,
		burstLength:  b.burstLength,

		cachelineShift: log2(b.cachelineSize, "cache line size"),
	}

	pos := uint64(0)
	next := func(n int, what string) field {
		width := log2(n, what)
		f := field{pos: pos, mask: (1 << width) - 1}
		pos += width

		return f
	}

	m.offset = next(b.busWidth/8*b.burstLength, "access unit size")
	m.burstInRow = next(b.numCol/b.burstLength, "bursts per row")
	m.channel = next(b.numChannel, "channel count")
	m.bank = next(b.numBank, "bank count")
	m.bankGroup = next(b.numBankGroup, "bank group count")
	m.rank = next(b.numRank, "rank count")
	m.row = next(b.numRow, "row count")

	return m
}

func log2(n int, what string) uint64 {
	if n <= 0 || n&(n-1) != 0 {
		log.Panicf("%s must be a power of 2, got %d", what, n)
	}

	return uint64(bits.TrailingZeros64(uint64(n)))
}
