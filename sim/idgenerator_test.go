package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("IDGenerator", func() {
	AfterEach(func() {
		UseSequentialIDGenerator()
	})

	It("should number IDs from 1", func() {
		UseSequentialIDGenerator()
		g := GetIDGenerator()

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
	})

	It("should restart numbering when switched back", func() {
		UseSequentialIDGenerator()
		GetIDGenerator().Generate()

		UseSequentialIDGenerator()

		Expect(GetIDGenerator().Generate()).To(Equal("1"))
	})

	It("should generate unique IDs in parallel mode", func() {
		UseParallelIDGenerator()
		g := GetIDGenerator()

		id1 := g.Generate()
		id2 := g.Generate()

		Expect(id1).To(HaveLen(20))
		Expect(id1).NotTo(Equal(id2))
	})
})
