package trafficgen

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/dramsched/mem/dram"
	"github.com/sarchlab/dramsched/mem/dram/trans"
	"github.com/sarchlab/dramsched/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Agent", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *sim.SerialEngine
		target   *MockTarget
		progress *MockProgressTracker
		agent    *Agent
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		target = NewMockTarget(mockCtrl)
		progress = NewMockProgressTracker(mockCtrl)

		agent = MakeBuilder().
			WithEngine(engine).
			WithTarget(target).
			WithNumAccess(2).
			WithMaxAddress(4096).
			Build("Agent")
		agent.SetProgressTracker(progress)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should panic without a target", func() {
		Expect(func() {
			MakeBuilder().WithEngine(engine).Build("Agent")
		}).To(Panic())
	})

	It("should panic if no aligned address fits", func() {
		Expect(func() {
			MakeBuilder().
				WithEngine(engine).
				WithTarget(target).
				WithMaxAddress(32).
				Build("Agent")
		}).To(Panic())
	})

	It("should not issue when the target is full", func() {
		target.EXPECT().CanEnqueue().Return(false)

		Expect(agent.Tick()).To(BeFalse())
		Expect(agent.NumLeft()).To(Equal(2))
	})

	It("should not count a rejected access", func() {
		target.EXPECT().CanEnqueue().Return(true)
		target.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return("", false)

		Expect(agent.Tick()).To(BeFalse())
		Expect(agent.NumIssued()).To(Equal(0))
	})

	It("should issue aligned addresses", func() {
		target.EXPECT().CanEnqueue().Return(true).Times(2)
		target.EXPECT().
			Enqueue(gomock.Any(), gomock.Any()).
			DoAndReturn(func(addr uint64, _ bool) (string, bool) {
				Expect(addr % 64).To(BeZero())
				Expect(addr).To(BeNumerically("<", 4096))

				return sim.GetIDGenerator().Generate(), true
			}).
			Times(2)
		progress.EXPECT().IncrementInProgress(uint64(1)).Times(2)

		Expect(agent.Tick()).To(BeTrue())
		Expect(agent.Tick()).To(BeTrue())
		Expect(agent.Tick()).To(BeFalse())

		Expect(agent.NumLeft()).To(Equal(0))
		Expect(agent.NumPending()).To(Equal(2))
	})

	It("should retire its own transactions only", func() {
		target.EXPECT().CanEnqueue().Return(true)
		target.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return("t1", true)
		progress.EXPECT().IncrementInProgress(uint64(1))
		progress.EXPECT().MoveInProgressToFinished(uint64(1))

		agent.Tick()
		agent.TransactionCompleted(&trans.Transaction{ID: "other"})
		agent.TransactionCompleted(&trans.Transaction{ID: "t1"})

		Expect(agent.NumPending()).To(Equal(0))
		Expect(agent.NumCompleted()).To(Equal(1))
	})
})

var _ = Describe("Agent with a memory controller", func() {
	It("should complete all the accesses", func() {
		engine := sim.NewSerialEngine()

		memCtrl := dram.MakeBuilder().
			WithEngine(engine).
			WithNumChannel(2).
			WithNumBank(4).
			WithTransactionQueueSize(4).
			WithCommandQueueSize(2).
			Build("MemCtrl")

		agent := MakeBuilder().
			WithEngine(engine).
			WithTarget(memCtrl).
			WithNumAccess(64).
			WithMaxAddress(1 << 24).
			WithSeed(7).
			Build("Agent")
		memCtrl.AddTransactionListener(agent)

		agent.TickLater()
		Expect(engine.Run()).To(Succeed())

		Expect(agent.NumCompleted()).To(Equal(64))
		Expect(agent.NumPending()).To(BeZero())
		Expect(memCtrl.NumOutstanding()).To(BeZero())
		Expect(memCtrl.Driver().NumIssued(0) + memCtrl.Driver().NumIssued(1)).
			To(BeNumerically(">=", 128))
	})
})
