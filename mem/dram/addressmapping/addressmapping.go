// Package addressmapping converts physical addresses to DRAM locations.
package addressmapping

import (
	"github.com/sarchlab/dramsched/mem/dram/signal"
)

// A Mapper can convert a byte address to the location in the DRAM.
type Mapper interface {
	Map(addr uint64) *signal.Location
}

type field struct {
	pos  uint64
	mask uint64
}

func (f field) extract(addr uint64) int {
	return int((addr >> f.pos) & f.mask)
}

type defaultAddrMapper struct {
	numChannel   int
	numBankGroup int
	numBank      int
	burstLength  int

	cachelineShift uint64

	offset     field
	burstInRow field
	channel    field
	bank       field
	bankGroup  field
	rank       field
	row        field
}

// Map decodes the address. Banks are numbered within a channel across ranks
// and bank groups. Bank IDs are interleaved across channels, so that
// consecutive bank IDs belong to consecutive channels.
//
// Column counts bus-width words within the row and points at the first word
// of the burst. Cacheline is the index of the cache line in the whole
// address space.
func (m defaultAddrMapper) Map(addr uint64) *signal.Location {
	l := &signal.Location{
		Channel:   m.channel.extract(addr),
		Rank:      m.rank.extract(addr),
		BankGroup: m.bankGroup.extract(addr),
		Bank:      m.bank.extract(addr),
		Row:       m.row.extract(addr),
		Column:    m.burstInRow.extract(addr) * m.burstLength,
		Cacheline: int(addr >> m.cachelineShift),
	}

	bankInChannel := (l.Rank*m.numBankGroup+l.BankGroup)*m.numBank + l.Bank
	l.BankID = bankInChannel*m.numChannel + l.Channel

	return l
}
