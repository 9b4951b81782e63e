package dram

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/dramsched/mem/dram/cmdq"
	"github.com/sarchlab/dramsched/mem/dram/org"
	"github.com/sarchlab/dramsched/mem/dram/signal"
	"github.com/sarchlab/dramsched/mem/dram/trans"
	"github.com/sarchlab/dramsched/sim"
)

type transRecorder struct {
	completed []*trans.Transaction
}

func (r *transRecorder) TransactionCompleted(t *trans.Transaction) {
	r.completed = append(r.completed, t)
}

type cmdRecorder struct {
	issued    []*signal.Command
	completed []*signal.Command
	started   int
}

func (r *cmdRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case cmdq.HookPosCmdIssue:
		r.issued = append(r.issued, ctx.Item.(*signal.Command))
	case org.HookPosCmdComplete:
		r.completed = append(r.completed, ctx.Item.(*signal.Command))
	case HookPosTransStart:
		r.started++
	}
}

var _ = Describe("MemController", func() {
	var (
		engine   *sim.SerialEngine
		recorder *transRecorder
		hook     *cmdRecorder
		builder  Builder
	)

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		recorder = &transRecorder{}
		hook = &cmdRecorder{}
		builder = MakeBuilder().
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithNumChannel(2).
			WithNumBank(4).
			WithNumRow(1024).
			WithNumCol(128).
			WithTREFI(0).
			WithAdditionalHooks(hook)
	})

	It("should organize the queues by channel and bank", func() {
		memCtrl := builder.Build("MemCtrl")

		Expect(memCtrl.Scheduler().NumChannel()).To(Equal(2))
		Expect(memCtrl.Scheduler().NumBankPerChannel()).To(Equal(4))
		Expect(memCtrl.Driver().TotalNumBank()).To(Equal(8))
		Expect(memCtrl.Refresher()).To(BeNil())
	})

	It("should panic without an engine", func() {
		Expect(func() { MakeBuilder().Build("MemCtrl") }).To(Panic())
	})

	It("should reject transactions when the buffer is full", func() {
		memCtrl := builder.WithTransactionQueueSize(1).Build("MemCtrl")

		_, ok := memCtrl.Enqueue(0x0, false)
		Expect(ok).To(BeTrue())
		Expect(memCtrl.CanEnqueue()).To(BeFalse())

		_, ok = memCtrl.Enqueue(0x40, false)
		Expect(ok).To(BeFalse())
	})

	It("should complete reads and writes", func() {
		memCtrl := builder.Build("MemCtrl")
		memCtrl.AddTransactionListener(recorder)

		ids := map[string]bool{}
		for i := 0; i < 8; i++ {
			id, ok := memCtrl.Enqueue(uint64(i)*0x400, i%2 == 1)
			Expect(ok).To(BeTrue())
			ids[id] = true
		}

		Expect(engine.Run()).To(Succeed())

		Expect(recorder.completed).To(HaveLen(8))
		for _, t := range recorder.completed {
			Expect(ids).To(HaveKey(t.ID))
			Expect(t.Done).To(BeTrue())
			Expect(t.CompleteCycle).To(BeNumerically(">", t.IssueCycle))
		}

		Expect(memCtrl.NumOutstanding()).To(Equal(0))
		Expect(memCtrl.NumCompleted()).To(Equal(uint64(8)))
		Expect(hook.started).To(Equal(8))
		Expect(hook.issued).To(HaveLen(16))
		Expect(hook.completed).To(HaveLen(16))
	})

	It("should complete transactions with one-entry command queues", func() {
		memCtrl := builder.WithCommandQueueSize(1).Build("MemCtrl")
		memCtrl.AddTransactionListener(recorder)

		_, ok := memCtrl.Enqueue(0x40, false)
		Expect(ok).To(BeTrue())
		_, ok = memCtrl.Enqueue(0x40, true)
		Expect(ok).To(BeTrue())

		Expect(engine.Run()).To(Succeed())

		Expect(recorder.completed).To(HaveLen(2))
		Expect(memCtrl.NumOutstanding()).To(Equal(0))
		Expect(hook.issued).To(HaveLen(4))
	})

	It("should keep the command order of each bank", func() {
		memCtrl := builder.Build("MemCtrl")

		for i := 0; i < 4; i++ {
			memCtrl.Enqueue(uint64(i)*0x10000, false)
		}

		Expect(engine.Run()).To(Succeed())

		lastSeq := map[int]uint64{}
		for _, cmd := range hook.issued {
			key := cmd.Location().Channel*100 + cmd.BankID()
			if seq, ok := lastSeq[key]; ok {
				Expect(cmd.SeqNum()).To(BeNumerically(">", seq))
			}

			lastSeq[key] = cmd.SeqNum()
		}
	})

	It("should refresh while serving traffic", func() {
		memCtrl := builder.WithTREFI(50).Build("MemCtrl")
		memCtrl.AddTransactionListener(recorder)

		for i := 0; i < 8; i++ {
			memCtrl.Enqueue(0, false)
		}

		Expect(engine.Run()).To(Succeed())

		Expect(recorder.completed).To(HaveLen(8))
		Expect(memCtrl.Refresher().NumIssued()).To(BeNumerically(">", 0))

		numRef := 0
		for _, cmd := range hook.issued {
			if cmd.Kind() == signal.CmdKindRefresh {
				numRef++
				Expect(cmd.BankIDs()).To(HaveLen(4))
			}
		}
		Expect(numRef).To(BeNumerically(">", 0))
	})
})
