package axis

import (
	"math/big"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/axisverif/sim"
)

var _ = Describe("Receivers", func() {
	var txn *Transaction

	BeforeEach(func() {
		var err error
		txn, err = NewTransaction(DefaultWidths(), 0, Fields{Data: big.NewInt(3)})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should always be ready", func() {
		r := NewAlwaysReady()

		for c := sim.VTimeInCycle(0); c < 10; c++ {
			Expect(r.Ready(c)).To(BeTrue())
		}
	})

	It("should only count accepted transactions by default", func() {
		r := NewAlwaysReady()

		r.Accept(4, txn)
		r.Accept(9, txn)

		Expect(r.NumAccepted()).To(Equal(uint64(2)))
		Expect(r.LastAcceptCycle()).To(Equal(sim.VTimeInCycle(9)))
		Expect(r.Accepted()).To(BeEmpty())
	})

	It("should record accepted transactions in order", func() {
		r := NewAlwaysReady().WithHistory()
		other, _ := NewTransaction(DefaultWidths(), 1, Fields{})

		r.Accept(4, txn)
		r.Accept(9, other)

		Expect(r.Accepted()).To(Equal([]*Transaction{txn, other}))
		Expect(r.AcceptCycles()).To(Equal([]sim.VTimeInCycle{4, 9}))
	})

	It("should be ready with the given probability", func() {
		r := NewRandomReceiver(0.25, rand.New(rand.NewSource(1)))

		ready := 0
		for c := sim.VTimeInCycle(0); c < 10000; c++ {
			if r.Ready(c) {
				ready++
			}
		}

		Expect(ready).To(BeNumerically("~", 2500, 250))
	})

	It("should clamp the probability", func() {
		never := NewRandomReceiver(-1, rand.New(rand.NewSource(1)))
		always := NewRandomReceiver(2, rand.New(rand.NewSource(1)))

		for c := sim.VTimeInCycle(0); c < 100; c++ {
			Expect(never.Ready(c)).To(BeFalse())
			Expect(always.Ready(c)).To(BeTrue())
		}
	})

	It("should follow the script", func() {
		pattern := []bool{false, true, false}
		r := NewScriptedReceiver(pattern, true)
		pattern[0] = true

		Expect(r.Ready(0)).To(BeFalse())
		Expect(r.Ready(1)).To(BeTrue())
		Expect(r.Ready(2)).To(BeFalse())
		Expect(r.Ready(3)).To(BeTrue())
		Expect(r.Ready(100)).To(BeTrue())
	})
})
