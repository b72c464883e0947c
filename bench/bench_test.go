package bench

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/axisverif/axis"
	"github.com/sarchlab/axisverif/datarecording"
)

var _ = Describe("Bench", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = DefaultConfig()
		cfg.SetCount(200)
		cfg.Delay.Min = 2
		cfg.Delay.Max = 4
	})

	It("should transfer every transaction without violations", func() {
		b, err := Build(cfg)
		Expect(err).NotTo(HaveOccurred())
		defer b.Close()

		report, err := b.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(report.Transactions).To(Equal(uint64(200)))
		Expect(report.Passed()).To(BeTrue(), "%v", report.Violations)
		Expect(report.ResetCycles).To(Equal(uint64(4)))
		Expect(report.MinGap).To(BeNumerically(">=", 1))
		Expect(report.MaxGap).To(BeNumerically("<=", 3))
		Expect(b.Receiver.NumAccepted()).To(Equal(uint64(200)))
		Expect(b.Generator.NumEmitted()).To(Equal(uint64(200)))
		Expect(b.Generator.Emitted()).To(BeEmpty())
		Expect(b.Sequencer.NumCompleted()).To(Equal(uint64(200)))
	})

	It("should report the run in text", func() {
		b, err := Build(cfg)
		Expect(err).NotTo(HaveOccurred())
		defer b.Close()

		report, err := b.Run()
		Expect(err).NotTo(HaveOccurred())

		out := &strings.Builder{}
		report.Print(out)
		Expect(out.String()).To(ContainSubstring("transactions:   200"))
		Expect(out.String()).To(ContainSubstring("PASS"))
	})

	It("should be reproducible from the seed", func() {
		run := func() *RunReport {
			b, err := Build(cfg)
			Expect(err).NotTo(HaveOccurred())
			defer b.Close()

			report, err := b.Run()
			Expect(err).NotTo(HaveOccurred())

			return report
		}

		a, c := run(), run()
		Expect(a.Cycles).To(Equal(c.Cycles))
		Expect(a.StallCycles).To(Equal(c.StallCycles))
		Expect(a.ZeroValues).To(Equal(c.ZeroValues))
	})

	It("should run the generator several times", func() {
		cfg.Runs = 3
		cfg.SetCount(10)

		b, err := Build(cfg)
		Expect(err).NotTo(HaveOccurred())
		defer b.Close()

		report, err := b.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Transactions).To(Equal(uint64(30)))
		Expect(report.Passed()).To(BeTrue())
	})

	It("should survive resets in the middle of the traffic", func() {
		cfg.Resets = []ResetPulse{
			{Start: 0, Cycles: 2},
			{Start: 40, Cycles: 3},
			{Start: 101, Cycles: 1},
		}
		cfg.Receiver = ReceiverConfig{Kind: ReceiverRandom, Probability: 0.3}

		b, err := Build(cfg)
		Expect(err).NotTo(HaveOccurred())
		defer b.Close()

		report, err := b.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Transactions).To(Equal(uint64(200)))
		Expect(report.ResetCycles).To(Equal(uint64(6)))
		Expect(report.Passed()).To(BeTrue(), "%v", report.Violations)
		Expect(b.Receiver.NumAccepted()).To(Equal(uint64(200)))
	})

	It("should record transfers to SQLite", func() {
		cfg.SetCount(25)
		cfg.Record = RecordConfig{
			Enabled: true,
			Path:    filepath.Join(GinkgoT().TempDir(), "bench"),
		}

		b, err := Build(cfg)
		Expect(err).NotTo(HaveOccurred())

		report, err := b.Run()
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Close()).To(Succeed())
		Expect(report.RecordedTo).To(HaveSuffix("bench.sqlite3"))

		reader, err := datarecording.NewReader(report.RecordedTo)
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		transfers, err := datarecording.ReadTransfers(
			context.Background(), reader)
		Expect(err).NotTo(HaveOccurred())
		Expect(transfers).To(HaveLen(25))
		Expect(transfers[0].Driver).To(Equal("axisbench.Driver"))
	})

	It("should serve the monitor", func() {
		cfg.Monitor = MonitorConfig{Enabled: true}

		b, err := Build(cfg)
		Expect(err).NotTo(HaveOccurred())
		defer b.Close()

		url, err := b.StartMonitor()
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(HavePrefix("http://localhost:"))

		rsp, err := http.Get(url + "/api/list_components")
		Expect(err).NotTo(HaveOccurred())
		rsp.Body.Close()
		Expect(rsp.StatusCode).To(Equal(http.StatusOK))

		_, err = b.Run()
		Expect(err).NotTo(HaveOccurred())
	})

	It("should not start a monitor that is disabled", func() {
		b, err := Build(cfg)
		Expect(err).NotTo(HaveOccurred())
		defer b.Close()

		url, err := b.StartMonitor()
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(BeEmpty())
	})

	It("should refuse a configuration without a count", func() {
		cfg.Count = nil

		_, err := Build(cfg)
		Expect(errors.Is(err, axis.ErrConfiguration)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("count"))
	})

	It("should refuse invalid configurations", func() {
		cfg.Delay.Min = 0

		_, err := Build(cfg)
		Expect(errors.Is(err, axis.ErrConfiguration)).To(BeTrue())
	})
})
