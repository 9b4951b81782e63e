package checkpoint

import (
	"bytes"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/dramsched/mem/dram/cmdq"
	"github.com/sarchlab/dramsched/mem/dram/org"
	"github.com/sarchlab/dramsched/mem/dram/signal"
)

func buildScheduler(name string) *cmdq.Scheduler {
	driver := org.MakeBuilder().
		WithNumChannel(2).
		WithNumBankPerChannel(2).
		Build(name + ".Driver")

	return cmdq.MakeBuilder().
		WithDriver(driver).
		WithCommandQueueSize(4).
		Build(name)
}

func fillScheduler(s *cmdq.Scheduler) {
	loc := &signal.Location{Channel: 1, Bank: 1, BankID: 3, Row: 9, Column: 4}
	read := signal.NewCommand(7, signal.CmdKindReadPrecharge, 0xdead40, loc).
		WithTransaction("trans-1")
	read.SetResponseReady(true)

	refLoc := &signal.Location{Channel: 0}
	ref := signal.NewMultiBankCommand(
		8, signal.CmdKindRefresh, 0, refLoc, []int{0, 2})

	Expect(s.Push(read)).To(BeTrue())
	Expect(s.Push(ref)).To(BeTrue())
}

var _ = Describe("Checkpoint", func() {
	var src, dst *cmdq.Scheduler

	BeforeEach(func() {
		src = buildScheduler("Src")
		dst = buildScheduler("Dst")
		fillScheduler(src)
	})

	expectSameQueues := func() {
		Expect(dst.State()).To(Equal(src.State()))

		restored := dst.Queue(1, 1).Peek()
		Expect(restored.SeqNum()).To(Equal(uint64(7)))
		Expect(restored.Kind()).To(Equal(signal.CmdKindReadPrecharge))
		Expect(restored.Address()).To(Equal(uint64(0xdead40)))
		Expect(restored.IsResponseReady()).To(BeTrue())
		Expect(restored.TransactionID()).To(Equal("trans-1"))
		Expect(restored.Location().Row).To(Equal(9))

		ref := dst.Queue(0, 0).Peek()
		Expect(ref.IsRefreshType()).To(BeTrue())
		Expect(ref.BankIDs()).To(Equal([]int{0, 2}))
	}

	It("should round trip through JSON", func() {
		buf := &bytes.Buffer{}

		Expect(Save(buf, src)).To(Succeed())
		Expect(Load(buf, dst)).To(Succeed())

		expectSameQueues()
	})

	It("should round trip through YAML files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "ckpt.yaml")

		Expect(SaveFile(path, src)).To(Succeed())
		Expect(LoadFile(path, dst)).To(Succeed())

		expectSameQueues()
	})

	It("should round trip through JSON files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "ckpt.json")

		Expect(SaveFile(path, src)).To(Succeed())
		Expect(LoadFile(path, dst)).To(Succeed())

		expectSameQueues()
	})

	It("should reject unknown versions", func() {
		buf := &bytes.Buffer{}
		Expect(Save(buf, src)).To(Succeed())

		data := strings.Replace(buf.String(), `"version":1`, `"version":9`, 1)

		Expect(Load(strings.NewReader(data), dst)).NotTo(Succeed())
		Expect(dst.Pending()).To(Equal(0))
	})

	It("should reject malformed input", func() {
		Expect(Load(strings.NewReader("{"), dst)).NotTo(Succeed())
	})

	It("should reject a checkpoint of a different organization", func() {
		driver := org.MakeBuilder().
			WithNumChannel(1).
			WithNumBankPerChannel(2).
			Build("Small.Driver")
		small := cmdq.MakeBuilder().WithDriver(driver).Build("Small")

		buf := &bytes.Buffer{}
		Expect(Save(buf, src)).To(Succeed())

		Expect(Load(buf, small)).NotTo(Succeed())
	})

	It("should fail to load a missing file", func() {
		Expect(LoadFile("/nonexistent/ckpt.json", dst)).NotTo(Succeed())
	})
})
