package axis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/axisverif/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("ResetController", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *sim.SerialEngine
		listener *MockResetListener
		reset    *ResetController
		changes  []sim.VTimeInCycle
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		listener = NewMockResetListener(mockCtrl)
		reset = NewResetController("Reset", engine)
		reset.AddListener(listener)
		changes = nil
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	record := func(bool) {
		changes = append(changes, engine.CurrentTime())
	}

	It("should start deasserted", func() {
		Expect(reset.Asserted()).To(BeFalse())
	})

	It("should assert and release a pulse", func() {
		gomock.InOrder(
			listener.EXPECT().NotifyReset(true).Do(record),
			listener.EXPECT().NotifyReset(false).Do(record),
		)

		reset.Pulse(2, 3)
		Expect(engine.Run()).To(Succeed())

		Expect(changes).To(Equal([]sim.VTimeInCycle{2, 5}))
		Expect(reset.Asserted()).To(BeFalse())
	})

	It("should ignore an empty pulse", func() {
		reset.Pulse(2, 0)
		Expect(engine.Run()).To(Succeed())
	})

	It("should only notify changes", func() {
		listener.EXPECT().NotifyReset(true).Do(record)

		reset.AssertAt(1)
		reset.AssertAt(3)
		Expect(engine.Run()).To(Succeed())

		Expect(changes).To(Equal([]sim.VTimeInCycle{1}))
		Expect(reset.Asserted()).To(BeTrue())
	})

	It("should invoke hooks with the new level", func() {
		listener.EXPECT().NotifyReset(gomock.Any()).AnyTimes()

		var levels []bool
		reset.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			Expect(ctx.Pos).To(Equal(HookPosResetChanged))
			levels = append(levels, ctx.Item.(bool))
		}))

		reset.Pulse(0, 1)
		Expect(engine.Run()).To(Succeed())

		Expect(levels).To(Equal([]bool{true, false}))
	})
})
