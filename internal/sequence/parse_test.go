package sequence_test

import (
	"errors"
	"strings"
	"testing/iotest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/auvctl/internal/sequence"
)

var _ = Describe("Normalize", func() {
	It("strips whitespace, lowercases and folds ё", func() {
		Expect(sequence.Normalize("  Вперёд , 5,\t50\r")).To(Equal("вперед,5,50"))
	})

	It("drops a byte order mark", func() {
		Expect(sequence.Normalize("\uFEFFназад,1")).To(Equal("назад,1"))
	})
})

var _ = Describe("Parser", func() {
	var p sequence.Parser

	BeforeEach(func() {
		p = sequence.Parser{Grammar: sequence.Plain, Delimiter: ","}
	})

	Describe("plain lines", func() {
		It("parses direction, duration and power", func() {
			in, err := p.ParseLine("вперед,5,50")
			Expect(err).NotTo(HaveOccurred())
			Expect(in.Direction).To(Equal(sequence.Forward))
			Expect(in.Duration).To(Equal(5 * time.Second))
			Expect(in.Power).NotTo(BeNil())
			Expect(*in.Power).To(Equal(50))
		})

		It("leaves power unset when omitted", func() {
			in, err := p.ParseLine("вперед,5")
			Expect(err).NotTo(HaveOccurred())
			Expect(in.Direction).To(Equal(sequence.Forward))
			Expect(in.Duration).To(Equal(5 * time.Second))
			Expect(in.Power).To(BeNil())
			Expect(in.PowerOr(35)).To(Equal(35))
		})

		It("accepts negative power", func() {
			in, err := p.ParseLine("вниз,2,-30")
			Expect(err).NotTo(HaveOccurred())
			Expect(in.PowerOr(0)).To(Equal(-30))
		})

		DescribeTable("rejects invalid lines",
			func(line string, want error) {
				_, err := p.ParseLine(line)
				Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			},
			Entry("unknown direction", "летать,5", sequence.ErrUnknownDirection),
			Entry("negative duration", "вперед,-5", sequence.ErrInvalidDuration),
			Entry("zero duration", "вперед,0", sequence.ErrInvalidDuration),
			Entry("duration past time.Duration", "вперед,9223372037", sequence.ErrInvalidDuration),
			Entry("power too high", "вперед,5,101", sequence.ErrInvalidPower),
			Entry("power too low", "вперед,5,-101", sequence.ErrInvalidPower),
			Entry("non-numeric duration", "вперед,пять", sequence.ErrMalformed),
			Entry("missing duration", "вперед", sequence.ErrMalformed),
			Entry("too many fields", "вперед,5,50,1", sequence.ErrMalformed),
			Entry("blank", "   ", sequence.ErrBlank),
		)

		It("honors a custom delimiter", func() {
			p.Delimiter = ";"
			in, err := p.ParseLine("вправо;3;20")
			Expect(err).NotTo(HaveOccurred())
			Expect(in.Direction).To(Equal(sequence.Right))
			Expect(*in.Power).To(Equal(20))
		})
	})

	Describe("labelled lines", func() {
		BeforeEach(func() {
			p.Grammar = sequence.Labelled
		})

		It("parses labels in any order", func() {
			in, err := p.ParseLine("М:40, Д:Вверх, В:7")
			Expect(err).NotTo(HaveOccurred())
			Expect(in.Direction).To(Equal(sequence.Up))
			Expect(in.Duration).To(Equal(7 * time.Second))
			Expect(*in.Power).To(Equal(40))
		})

		It("makes power optional", func() {
			in, err := p.ParseLine("д:влево,в:2")
			Expect(err).NotTo(HaveOccurred())
			Expect(in.Direction).To(Equal(sequence.Left))
			Expect(in.Power).To(BeNil())
		})

		DescribeTable("rejects invalid lines",
			func(line string, want error) {
				_, err := p.ParseLine(line)
				Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			},
			Entry("unlabelled field", "вперед,5", sequence.ErrMalformed),
			Entry("missing duration", "д:вперед", sequence.ErrMalformed),
			Entry("repeated label", "д:вперед,в:1,в:2", sequence.ErrMalformed),
			Entry("unknown label", "д:вперед,в:1,х:2", sequence.ErrMalformed),
			Entry("unknown direction", "д:летать,в:5", sequence.ErrUnknownDirection),
			Entry("negative duration", "д:вперед,в:-5", sequence.ErrInvalidDuration),
		)
	})

	Describe("Parse", func() {
		It("skips bad lines and keeps going", func() {
			src := "вперед,5,50\n\nлетать,5\nназад,2\nвперед,-5\n"
			prog, skipped, err := p.Parse(strings.NewReader(src))
			Expect(err).NotTo(HaveOccurred())

			Expect(prog).To(HaveLen(2))
			Expect(prog[0].Line).To(Equal(1))
			Expect(prog[1].Line).To(Equal(4))
			Expect(prog[1].Direction).To(Equal(sequence.Backward))

			Expect(skipped).To(HaveLen(2))
			Expect(skipped[0].Line).To(Equal(3))
			Expect(errors.Is(&skipped[0], sequence.ErrUnknownDirection)).To(BeTrue())
			Expect(skipped[1].Line).To(Equal(5))
			Expect(errors.Is(&skipped[1], sequence.ErrInvalidDuration)).To(BeTrue())
		})

		It("skips an over-long line without losing the rest", func() {
			src := "вперед,1\n" + strings.Repeat("x", 70000) + "\nназад,2\r\nвверх,3"
			prog, skipped, err := p.Parse(strings.NewReader(src))
			Expect(err).NotTo(HaveOccurred())

			Expect(prog).To(HaveLen(3))
			Expect(prog[1].Line).To(Equal(3))
			Expect(prog[1].Direction).To(Equal(sequence.Backward))
			Expect(prog[2].Line).To(Equal(4))
			Expect(prog[2].Direction).To(Equal(sequence.Up))

			Expect(skipped).To(HaveLen(1))
			Expect(skipped[0].Line).To(Equal(2))
			Expect(errors.Is(&skipped[0], sequence.ErrMalformed)).To(BeTrue())
		})

		It("reports read failures", func() {
			_, _, err := p.Parse(iotest.ErrReader(errors.New("disk gone")))
			Expect(err).To(MatchError(ContainSubstring("disk gone")))
		})
	})
})

var _ = Describe("Direction", func() {
	It("round-trips through its token", func() {
		for _, d := range []sequence.Direction{
			sequence.Forward, sequence.Backward, sequence.Left,
			sequence.Right, sequence.Up, sequence.Down,
		} {
			got, err := sequence.ParseDirection(d.Token())
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(d))
		}
	})
})

var _ = Describe("ParseGrammar", func() {
	It("defaults to plain", func() {
		g, err := sequence.ParseGrammar("")
		Expect(err).NotTo(HaveOccurred())
		Expect(g).To(Equal(sequence.Plain))
	})

	It("rejects unknown names", func() {
		_, err := sequence.ParseGrammar("xml")
		Expect(err).To(HaveOccurred())
	})
})
