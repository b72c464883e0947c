package sequencer

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/axisverif/axis"
	"go.uber.org/mock/gomock"
)

// drain plays the consumer side until the sequencer runs dry.
func drain(s *Sequencer) <-chan []*axis.Transaction {
	out := make(chan []*axis.Transaction, 1)

	go func() {
		var got []*axis.Transaction

		for {
			txn := s.TryNextItem()
			if txn == nil {
				break
			}

			got = append(got, txn)
			s.ItemDone()
		}

		out <- got
	}()

	return out
}

var _ = Describe("Sequencer", func() {
	var (
		mockCtrl *gomock.Controller
		s        *Sequencer
		gen      *Generator
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		s = New("Seqr")

		var err error
		gen, err = MakeGeneratorBuilder().
			WithCount(5).
			WithRand(rand.New(rand.NewSource(7))).
			WithHistory().
			Build("Gen")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should return nil when no sequence is running", func() {
		Expect(s.IsRunning()).To(BeFalse())
		Expect(s.TryNextItem()).To(BeNil())
	})

	It("should reject Execute outside of a sequence", func() {
		txn, err := gen.Sample()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Execute(txn)).To(MatchError(ErrNotStarted))
	})

	It("should hand over every transaction in order", func() {
		done := s.Start(gen)
		consumed := drain(s)

		Expect(<-done).To(Succeed())
		got := <-consumed

		Expect(got).To(Equal(gen.Emitted()))
		Expect(got).To(HaveLen(5))
		for i, txn := range got {
			Expect(txn.Seq()).To(Equal(uint64(i)))
		}

		Expect(s.NumHandedOff()).To(Equal(uint64(5)))
		Expect(s.NumCompleted()).To(Equal(uint64(5)))
		Expect(s.IsRunning()).To(BeFalse())
	})

	It("should not release the producer before the item is done", func() {
		done := s.Start(gen)

		txn := s.TryNextItem()
		Expect(txn).NotTo(BeNil())
		Consistently(done).ShouldNot(Receive())
		Expect(s.NumCompleted()).To(BeZero())

		s.ItemDone()
		consumed := drain(s)

		Expect(<-done).To(Succeed())
		Expect(<-consumed).To(HaveLen(4))
	})

	It("should finish immediately when the count is zero", func() {
		Expect(gen.Configure(0)).To(Succeed())

		Expect(gen.Run(s)).To(Succeed())
		Expect(s.TryNextItem()).To(BeNil())
		Expect(s.NumHandedOff()).To(BeZero())
		Expect(gen.Emitted()).To(BeEmpty())
	})

	It("should allow the generator to run again", func() {
		Expect(gen.Configure(2)).To(Succeed())

		for round := 0; round < 2; round++ {
			done := s.Start(gen)
			consumed := drain(s)
			Expect(<-done).To(Succeed())
			Expect(<-consumed).To(HaveLen(2))
		}

		seqs := []uint64{}
		for _, txn := range gen.Emitted() {
			seqs = append(seqs, txn.Seq())
		}
		Expect(seqs).To(Equal([]uint64{0, 1, 2, 3}))
		Expect(s.NumCompleted()).To(Equal(uint64(4)))
	})

	It("should wake the consumer when a sequence starts", func() {
		waker := NewMockWaker(mockCtrl)
		waker.EXPECT().NotifyItemAvailable()
		s.SetWaker(waker)

		Expect(gen.Configure(1)).To(Succeed())
		done := s.Start(gen)
		consumed := drain(s)

		Expect(<-done).To(Succeed())
		Expect(<-consumed).To(HaveLen(1))
	})

	It("should panic on ItemDone without an item", func() {
		Expect(func() { s.ItemDone() }).To(Panic())
	})
})
