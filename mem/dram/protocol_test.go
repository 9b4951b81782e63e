package dram

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Protocol", func() {
	It("should parse names regardless of case", func() {
		p, err := ParseProtocol("hbm2")

		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(HBM2))
		Expect(p.String()).To(Equal("HBM2"))
	})

	It("should reject unknown names", func() {
		_, err := ParseProtocol("SDRAM")

		Expect(err).To(MatchError(ContainSubstring("SDRAM")))
	})

	It("should use tRCDRD for graphics and stacked memories", func() {
		Expect(GDDR6.isGDDR()).To(BeTrue())
		Expect(HBM.isHBM()).To(BeTrue())
		Expect(DDR4.isGDDR() || DDR4.isHBM()).To(BeFalse())
	})
})
