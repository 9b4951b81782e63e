package cmdq

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/dramsched/mem/dram/signal"
	"github.com/sarchlab/dramsched/sim"
	"go.uber.org/mock/gomock"
)

const (
	testNumChannel        = 2
	testNumBankPerChannel = 2
)

// makeCmd creates a command for the bank-th queue of a channel.
func makeCmd(seq uint64, channel, bank int) *signal.Command {
	loc := &signal.Location{
		Channel: channel,
		Bank:    bank,
		BankID:  bank*testNumChannel + channel,
	}

	return signal.NewCommand(seq, signal.CmdKindRead, seq*64, loc)
}

type issueHook struct {
	issued []*signal.Command
}

func (h *issueHook) Func(ctx sim.HookCtx) {
	if ctx.Pos == HookPosCmdIssue {
		h.issued = append(h.issued, ctx.Item.(*signal.Command))
	}
}

var _ = Describe("Builder", func() {
	var (
		mockCtrl *gomock.Controller
		driver   *MockDeviceDriver
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		driver = NewMockDeviceDriver(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should create one queue per bank", func() {
		driver.EXPECT().TotalNumBank().Return(8)
		driver.EXPECT().NumChannel().Return(2)

		s := MakeBuilder().
			WithDriver(driver).
			WithCommandQueueSize(4).
			Build("Sched")

		Expect(s.NumChannel()).To(Equal(2))
		Expect(s.NumBankPerChannel()).To(Equal(4))
		Expect(s.Queues()).To(HaveLen(8))
		Expect(s.Queue(1, 3).Capacity()).To(Equal(4))
		Expect(s.Queue(1, 3).Name()).To(Equal("Sched.CmdQ[1][3]"))
		Expect(s.NextBankIndex(0)).To(Equal(0))
		Expect(s.NextBankIndex(1)).To(Equal(0))
	})

	It("should use 32 entries when the queue size is not set", func() {
		driver.EXPECT().TotalNumBank().Return(2)
		driver.EXPECT().NumChannel().Return(1)

		s := MakeBuilder().
			WithDriver(driver).
			WithCommandQueueSize(0).
			Build("Sched")

		Expect(s.Queue(0, 0).Capacity()).To(Equal(DefaultCommandQueueSize))
	})

	It("should panic if there is no bank", func() {
		driver.EXPECT().TotalNumBank().Return(0)
		driver.EXPECT().NumChannel().Return(1)

		Expect(func() {
			MakeBuilder().WithDriver(driver).Build("Sched")
		}).To(Panic())
	})

	It("should panic if there is no channel", func() {
		driver.EXPECT().TotalNumBank().Return(4)
		driver.EXPECT().NumChannel().Return(0)

		Expect(func() {
			MakeBuilder().WithDriver(driver).Build("Sched")
		}).To(Panic())
	})

	It("should panic without a driver", func() {
		Expect(func() { MakeBuilder().Build("Sched") }).To(Panic())
	})
})

var _ = Describe("Scheduler", func() {
	var (
		mockCtrl *gomock.Controller
		driver   *MockDeviceDriver
		s        *Scheduler
	)

	build := func(queueSize, banksPerChannel int) {
		driver.EXPECT().
			TotalNumBank().
			Return(banksPerChannel * testNumChannel).
			AnyTimes()
		driver.EXPECT().NumChannel().Return(testNumChannel).AnyTimes()

		s = MakeBuilder().
			WithDriver(driver).
			WithCommandQueueSize(queueSize).
			Build("Sched")
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		driver = NewMockDeviceDriver(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("admission control", func() {
		BeforeEach(func() {
			build(2, testNumBankPerChannel)
		})

		It("should route commands by channel and interleaved bank ID", func() {
			cmd := makeCmd(1, 1, 1)

			Expect(s.Push(cmd)).To(BeTrue())

			Expect(s.Queue(1, 1).Peek()).To(BeIdenticalTo(cmd))
			Expect(s.Pending()).To(Equal(1))
		})

		It("should reject a push when the queue is full", func() {
			c1 := makeCmd(1, 0, 0)
			c2 := makeCmd(2, 0, 0)
			c3 := makeCmd(3, 0, 0)

			Expect(s.Push(c1)).To(BeTrue())
			Expect(s.Push(c2)).To(BeTrue())
			Expect(s.Push(c3)).To(BeFalse())

			Expect(s.Queue(0, 0).Commands()).To(
				Equal([]*signal.Command{c1, c2}))
		})

		It("should report the free slots as tokens", func() {
			loc := makeCmd(1, 0, 1).Location()

			Expect(s.GetToken(loc)).To(Equal(2))

			s.Push(makeCmd(1, 0, 1))
			Expect(s.GetToken(loc)).To(Equal(1))

			s.Push(makeCmd(2, 0, 1))
			Expect(s.GetToken(loc)).To(Equal(0))

			Expect(s.GetToken(makeCmd(3, 1, 1).Location())).To(Equal(2))
		})

		It("should queue a multi-bank refresh in the primary bank", func() {
			loc := &signal.Location{Channel: 1}
			ref := signal.NewMultiBankCommand(
				1, signal.CmdKindRefresh, 0, loc, []int{3, 1})

			Expect(s.Push(ref)).To(BeTrue())

			Expect(s.Queue(1, 1).Peek()).To(BeIdenticalTo(ref))
			Expect(s.Queue(1, 0).Size()).To(Equal(0))
		})

		It("should panic if a command maps to no queue", func() {
			Expect(func() { s.Push(makeCmd(1, 0, 5)) }).To(Panic())
		})
	})

	Context("arbitration", func() {
		BeforeEach(func() {
			build(2, testNumBankPerChannel)
		})

		It("should issue banks in turn", func() {
			a := makeCmd(1, 0, 0)
			b := makeCmd(2, 0, 1)
			s.Push(a)
			s.Push(b)

			driver.EXPECT().IsCmdAllowed(gomock.Any()).Return(true).AnyTimes()
			pushA := driver.EXPECT().Push(a).Return(true)
			driver.EXPECT().Push(b).Return(true).After(pushA)

			Expect(s.Tick()).To(BeTrue())
			Expect(s.Queue(0, 0).Size()).To(Equal(0))
			Expect(s.Queue(0, 1).Size()).To(Equal(1))
			Expect(s.NextBankIndex(0)).To(Equal(1))

			Expect(s.Tick()).To(BeTrue())
			Expect(s.Queue(0, 1).Size()).To(Equal(0))
			Expect(s.NextBankIndex(0)).To(Equal(0))
		})

		It("should admit at most one command per channel per tick", func() {
			s.Push(makeCmd(1, 0, 0))
			s.Push(makeCmd(2, 0, 1))
			s.Push(makeCmd(3, 1, 0))
			s.Push(makeCmd(4, 1, 1))

			driver.EXPECT().IsCmdAllowed(gomock.Any()).Return(true).Times(2)
			driver.EXPECT().Push(gomock.Any()).Return(true).Times(2)

			Expect(s.Tick()).To(BeTrue())
			Expect(s.Pending()).To(Equal(2))
			Expect(s.Queue(0, 1).Size()).To(Equal(1))
			Expect(s.Queue(1, 1).Size()).To(Equal(1))
		})

		It("should skip a bank whose head is not allowed", func() {
			blocked := makeCmd(1, 0, 0)
			ready := makeCmd(2, 0, 1)
			s.Push(blocked)
			s.Push(ready)

			driver.EXPECT().IsCmdAllowed(blocked).Return(false)
			driver.EXPECT().IsCmdAllowed(ready).Return(true)
			driver.EXPECT().Push(ready).Return(true)

			Expect(s.Tick()).To(BeTrue())
			Expect(s.Queue(0, 0).Peek()).To(BeIdenticalTo(blocked))
			Expect(s.Queue(0, 1).Size()).To(Equal(0))
			Expect(s.NextBankIndex(0)).To(Equal(0))
		})

		It("should keep scanning when the driver rejects a command", func() {
			rejected := makeCmd(1, 0, 0)
			accepted := makeCmd(2, 0, 1)
			s.Push(rejected)
			s.Push(accepted)

			driver.EXPECT().IsCmdAllowed(gomock.Any()).Return(true).Times(2)
			driver.EXPECT().Push(rejected).Return(false)
			driver.EXPECT().Push(accepted).Return(true)

			Expect(s.Tick()).To(BeTrue())
			Expect(s.Queue(0, 0).Peek()).To(BeIdenticalTo(rejected))
			Expect(s.Queue(0, 1).Size()).To(Equal(0))
		})

		It("should admit nothing when no head is allowed", func() {
			s.Push(makeCmd(1, 0, 0))
			s.Push(makeCmd(2, 0, 1))

			driver.EXPECT().IsCmdAllowed(gomock.Any()).Return(false).Times(2)

			Expect(s.Tick()).To(BeFalse())
			Expect(s.Pending()).To(Equal(2))
			Expect(s.NextBankIndex(0)).To(Equal(0))
		})

		It("should not consult the driver for empty queues", func() {
			Expect(s.Tick()).To(BeFalse())
			Expect(s.NextBankIndex(0)).To(Equal(0))
			Expect(s.NextBankIndex(1)).To(Equal(0))
		})

		It("should invoke hooks when issuing", func() {
			hook := &issueHook{}
			s.AcceptHook(hook)
			cmd := makeCmd(1, 1, 0)
			s.Push(cmd)

			driver.EXPECT().IsCmdAllowed(cmd).Return(true)
			driver.EXPECT().Push(cmd).Return(true)

			s.Tick()

			Expect(hook.issued).To(Equal([]*signal.Command{cmd}))
		})
	})

	Context("fairness", func() {
		const banksPerChannel = 4

		BeforeEach(func() {
			build(4, banksPerChannel)
		})

		It("should admit every bank once in N ticks", func() {
			for round := 0; round < 2; round++ {
				for bank := 0; bank < banksPerChannel; bank++ {
					seq := uint64(round*banksPerChannel + bank)
					Expect(s.Push(makeCmd(seq, 0, bank))).To(BeTrue())
				}
			}

			issuedBanks := []int{}
			driver.EXPECT().IsCmdAllowed(gomock.Any()).Return(true).AnyTimes()
			driver.EXPECT().Push(gomock.Any()).
				DoAndReturn(func(cmd *signal.Command) bool {
					issuedBanks = append(issuedBanks, cmd.Location().Bank)
					return true
				}).AnyTimes()

			for i := 0; i < banksPerChannel; i++ {
				s.Tick()
			}
			Expect(issuedBanks).To(Equal([]int{0, 1, 2, 3}))

			for i := 0; i < banksPerChannel; i++ {
				s.Tick()
			}
			Expect(issuedBanks).To(Equal([]int{0, 1, 2, 3, 0, 1, 2, 3}))
		})

		It("should continue from where the last scan stopped", func() {
			never := makeCmd(100, 0, 0)
			s.Push(never)
			s.Push(makeCmd(1, 0, 2))
			s.Push(makeCmd(2, 0, 3))

			issuedBanks := []int{}
			driver.EXPECT().IsCmdAllowed(never).Return(false).AnyTimes()
			driver.EXPECT().IsCmdAllowed(gomock.Any()).Return(true).AnyTimes()
			driver.EXPECT().Push(gomock.Any()).
				DoAndReturn(func(cmd *signal.Command) bool {
					issuedBanks = append(issuedBanks, cmd.Location().Bank)
					return true
				}).AnyTimes()

			s.Tick()
			Expect(issuedBanks).To(Equal([]int{2}))
			Expect(s.NextBankIndex(0)).To(Equal(3))

			s.Tick()
			Expect(issuedBanks).To(Equal([]int{2, 3}))
			Expect(s.NextBankIndex(0)).To(Equal(0))

			Expect(s.Tick()).To(BeFalse())
			Expect(s.Queue(0, 0).Peek()).To(BeIdenticalTo(never))
		})
	})

	Context("backpressure", func() {
		BeforeEach(func() {
			build(1, testNumBankPerChannel)
		})

		It("should hold only the first command of a full bank", func() {
			first := makeCmd(1, 0, 0)
			second := makeCmd(2, 0, 0)

			Expect(s.Push(first)).To(BeTrue())
			Expect(s.Push(second)).To(BeFalse())

			Expect(s.Queue(0, 0).Commands()).To(
				Equal([]*signal.Command{first}))
			Expect(s.GetToken(first.Location())).To(Equal(0))
		})
	})

	Context("state", func() {
		BeforeEach(func() {
			build(2, testNumBankPerChannel)
		})

		It("should restore queued commands and cursors", func() {
			s.Push(makeCmd(1, 0, 0))
			s.Push(makeCmd(2, 0, 1))
			s.Push(makeCmd(3, 1, 1))

			driver.EXPECT().IsCmdAllowed(gomock.Any()).Return(true).Times(2)
			driver.EXPECT().Push(gomock.Any()).Return(true).Times(2)
			s.Tick()

			state := s.State()

			other := MakeBuilder().
				WithDriver(driver).
				WithCommandQueueSize(2).
				Build("Other")
			Expect(other.SetState(state)).To(Succeed())

			Expect(other.Pending()).To(Equal(1))
			Expect(other.Queue(0, 1).Peek().SeqNum()).To(Equal(uint64(2)))
			Expect(other.NextBankIndex(0)).To(Equal(1))
			Expect(other.NextBankIndex(1)).To(Equal(0))
		})

		It("should reject a state with a different organization", func() {
			state := s.State()
			state.NumBankPerChannel = 3

			Expect(s.SetState(state)).NotTo(Succeed())
		})

		It("should reject a state that overflows a queue", func() {
			state := s.State()
			cs := makeCmd(1, 0, 0).State()
			state.Queues[0][0] = []signal.CommandState{cs, cs, cs}

			Expect(s.SetState(state)).NotTo(Succeed())
			Expect(s.Pending()).To(Equal(0))
		})
	})
})
