package sequence_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/edaniels/golog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/auvctl/internal/sequence"
)

// journal records motor commands and waits in the order they happen.
type journal struct {
	events []string
	calls  int
	failOn int
}

func (j *journal) SetMotorPower(_ context.Context, channel, power int) error {
	j.calls++
	if j.calls == j.failOn {
		return errors.New("thruster fault")
	}
	j.events = append(j.events, fmt.Sprintf("motor %d=%d", channel, power))
	return nil
}

func (j *journal) wait(_ context.Context, d time.Duration) bool {
	j.events = append(j.events, "wait "+d.String())
	return true
}

var _ = Describe("Runner", func() {
	var (
		j      *journal
		cfg    sequence.Config
		runner *sequence.Runner
		dir    string
	)

	BeforeEach(func() {
		j = &journal{}
		cfg = sequence.DefaultConfig()
		cfg.StopOnFinish = false
		dir = GinkgoT().TempDir()
	})

	JustBeforeEach(func() {
		runner = sequence.NewRunner(cfg, j, golog.NewDebugLogger("sequence"))
		runner.SetWait(j.wait)
	})

	writeFile := func(body string) string {
		path := filepath.Join(dir, "order.ord")
		Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())
		return path
	}

	It("issues each action in file order followed by its wait", func() {
		path := writeFile("вперед,5,50\nвлево,2\nвверх,1,30\n")

		Expect(runner.RunFile(context.Background(), path)).To(Succeed())
		Expect(j.events).To(Equal([]string{
			"motor 1=-50", "motor 2=-50", "wait 5s",
			"motor 1=-50", "motor 2=50", "wait 2s",
			"motor 0=30", "motor 3=30", "wait 1s",
		}))
	})

	It("skips invalid lines without aborting", func() {
		path := writeFile("летать,5\nназад,1,10\nвперед,-5\n")

		Expect(runner.RunFile(context.Background(), path)).To(Succeed())
		Expect(j.events).To(Equal([]string{"motor 1=10", "motor 2=10", "wait 1s"}))
	})

	It("fails when the file cannot be read", func() {
		err := runner.RunFile(context.Background(), filepath.Join(dir, "missing.ord"))
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		Expect(j.events).To(BeEmpty())
	})

	Context("with stop on finish", func() {
		BeforeEach(func() {
			cfg.StopOnFinish = true
		})

		It("zeroes every sequence channel after the last instruction", func() {
			path := writeFile("вправо,1,20\n")

			Expect(runner.RunFile(context.Background(), path)).To(Succeed())
			Expect(j.events).To(Equal([]string{
				"motor 1=20", "motor 2=-20", "wait 1s",
				"motor 1=0", "motor 2=0", "motor 0=0", "motor 3=0",
			}))
		})
	})

	It("maps down to negative vertical power", func() {
		Expect(cfg.Commands(sequence.Down, 40)).To(Equal([]sequence.Command{
			{Channel: 0, Power: -40}, {Channel: 3, Power: -40},
		}))
	})

	It("stops motors and returns the cause when a command fails", func() {
		j.failOn = 2
		prog := []sequence.Instruction{{Line: 1, Direction: sequence.Forward, Duration: time.Second}}

		err := runner.Execute(context.Background(), prog)
		Expect(err).To(MatchError(ContainSubstring("thruster fault")))
		Expect(j.events).To(ContainElement("motor 0=0"))
	})

	It("stops early when the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		runner.SetWait(func(ctx context.Context, d time.Duration) bool {
			cancel()
			return false
		})
		prog := []sequence.Instruction{
			{Line: 1, Direction: sequence.Forward, Duration: time.Second},
			{Line: 2, Direction: sequence.Backward, Duration: time.Second},
		}

		err := runner.Execute(ctx, prog)
		Expect(err).To(MatchError(context.Canceled))
		Expect(j.events).To(Equal([]string{
			"motor 1=-50", "motor 2=-50",
			"motor 1=0", "motor 2=0", "motor 0=0", "motor 3=0",
		}))
	})

	It("waits for real with the default wait", func() {
		r := sequence.NewRunner(cfg, j, golog.NewDebugLogger("sequence"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		prog := []sequence.Instruction{{Line: 1, Direction: sequence.Up, Duration: time.Hour}}
		Expect(r.Execute(ctx, prog)).To(MatchError(context.Canceled))
	})
})
