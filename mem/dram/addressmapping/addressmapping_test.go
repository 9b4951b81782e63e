package addressmapping

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Mapper", func() {
	var m Mapper

	BeforeEach(func() {
		// 64-byte bursts, 16 bursts per row, 2 channels, 4 banks, 2 bank
		// groups, 2 ranks.
		m = MakeBuilder().
			WithBusWidth(64).
			WithBurstLength(8).
			WithNumCol(128).
			WithNumChannel(2).
			WithNumBank(4).
			WithNumBankGroup(2).
			WithNumRank(2).
			WithNumRow(1024).
			Build()
	})

	It("should decode address 0", func() {
		l := m.Map(0)

		Expect(l.Channel).To(Equal(0))
		Expect(l.Bank).To(Equal(0))
		Expect(l.BankID).To(Equal(0))
		Expect(l.Row).To(Equal(0))
	})

	It("should decode every field", func() {
		// offset: 6 bits, column: 4, channel: 1, bank: 2, bank group: 1,
		// rank: 1, row: 10.
		addr := uint64(0x25)<<0 |
			uint64(0x9)<<6 |
			uint64(1)<<10 |
			uint64(3)<<11 |
			uint64(1)<<13 |
			uint64(1)<<14 |
			uint64(0x155)<<15

		l := m.Map(addr)

		Expect(l.Column).To(Equal(9 * 8))
		Expect(l.Channel).To(Equal(1))
		Expect(l.Bank).To(Equal(3))
		Expect(l.BankGroup).To(Equal(1))
		Expect(l.Rank).To(Equal(1))
		Expect(l.Row).To(Equal(0x155))
		Expect(l.BankID).To(Equal(((1*2+1)*4+3)*2 + 1))
		Expect(l.Cacheline).To(Equal(int(addr / 64)))
	})

	It("should interleave bank IDs across channels", func() {
		l := m.Map(uint64(1)<<10 | uint64(2)<<11)

		Expect(l.BankID).To(Equal(2*2 + 1))
		Expect(l.BankID / 2).To(Equal(l.Bank))
	})

	It("should map consecutive bursts a burst length of columns apart", func() {
		Expect(m.Map(0).Column).To(Equal(0))
		Expect(m.Map(64).Column).To(Equal(8))
		Expect(m.Map(64 * 15).Column).To(Equal(120))
		Expect(m.Map(64 * 16).Channel).To(Equal(1))
		Expect(m.Map(64 * 16).Column).To(Equal(0))
	})

	It("should count cache lines across the whole address space", func() {
		Expect(m.Map(63).Cacheline).To(Equal(0))
		Expect(m.Map(64 * 16).Cacheline).To(Equal(16))

		small := MakeBuilder().WithCachelineSize(32).Build()
		Expect(small.Map(64 * 16).Cacheline).To(Equal(32))
	})

	It("should panic if the cache line size is not a power of 2", func() {
		Expect(func() {
			MakeBuilder().WithCachelineSize(48).Build()
		}).To(Panic())
	})

	It("should panic if a count is not a power of 2", func() {
		Expect(func() {
			MakeBuilder().WithNumBank(6).Build()
		}).To(Panic())
	})
})
