package cli

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/fatih/color"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/cardforge/internal/study"
	"github.com/kpauljoseph/cardforge/pkg/models"
)

var _ = Describe("studyRunner", func() {
	var (
		out     *bytes.Buffer
		session *study.Session
	)

	run := func(input ...string) string {
		r := &studyRunner{
			session: session,
			in:      bufio.NewScanner(strings.NewReader(strings.Join(input, "\n") + "\n")),
			out:     out,
		}
		r.run()
		return out.String()
	}

	BeforeEach(func() {
		color.NoColor = true
		out = &bytes.Buffer{}
		var err error
		session, err = study.NewSession([]models.Card{
			{ID: "1", Variant: models.NewPair("Osmosis", "Diffusion of water")},
			{ID: "2", Variant: models.NewFillBlank("The {{mitochondria}} makes ATP", "mitochondria")},
			{ID: "3", Variant: models.NewMultipleChoice("Largest organelle?", []string{"Ribosome", "Nucleus"}, 1)},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should walk every card shape and print the score", func() {
		text := run("", ":n", ":h", "ribosome", ":r", ":n", "b", ":q")

		Expect(text).To(ContainSubstring("Card 1/3\nOsmosis"))
		Expect(text).To(ContainSubstring("Diffusion of water"))
		Expect(text).To(ContainSubstring("The _____ makes ATP"))
		Expect(text).NotTo(ContainSubstring("The mitochondria makes ATP"))
		Expect(text).To(ContainSubstring(`Hint: starts with "m"`))
		Expect(text).To(ContainSubstring("Not quite."))
		Expect(text).To(ContainSubstring("Answer: mitochondria"))
		Expect(text).To(ContainSubstring("  B) Nucleus  ✓"))
		Expect(text).To(ContainSubstring("Correct!"))
		Expect(text).To(HaveSuffix("Correct: 1  Incorrect: 0  Revealed: 1\n"))
	})

	It("should mark a wrong multiple-choice pick", func() {
		Expect(session.Goto(2)).To(Succeed())
		text := run("1", "2")

		Expect(text).To(ContainSubstring("  A) Ribosome  ✗"))
		Expect(text).To(ContainSubstring("Answer already checked."))
		Expect(text).To(HaveSuffix("Correct: 0  Incorrect: 1  Revealed: 0\n"))
	})

	It("should explain unusable input", func() {
		Expect(session.Goto(2)).To(Succeed())
		text := run("maybe", "9")
		Expect(text).To(ContainSubstring("Pick an option by letter or number."))
		Expect(text).To(ContainSubstring("No such option."))
	})

	It("should stop after the last card", func() {
		Expect(session.Goto(2)).To(Succeed())
		text := run(":n", "a")
		Expect(text).To(ContainSubstring("That was the last card."))
		Expect(text).NotTo(ContainSubstring("Not quite"))
	})

	It("should refuse hints on pair cards", func() {
		text := run(":h")
		Expect(text).To(ContainSubstring("Not available for this card."))
	})

	It("should lock a correctly answered fill-in", func() {
		Expect(session.Goto(1)).To(Succeed())
		text := run(" Mitochondria ", "other")
		Expect(text).To(ContainSubstring("Correct!"))
		Expect(text).To(ContainSubstring("Already answered correctly."))
		Expect(text).To(HaveSuffix("Correct: 1  Incorrect: 0  Revealed: 0\n"))
	})
})

var _ = Describe("study helpers", func() {
	DescribeTable("parseChoice",
		func(input string, index int, ok bool) {
			i, valid := parseChoice(input)
			Expect(valid).To(Equal(ok))
			if ok {
				Expect(i).To(Equal(index))
			}
		},
		Entry("upper letter", "C", 2, true),
		Entry("lower letter", "a", 0, true),
		Entry("number", "2", 1, true),
		Entry("zero", "0", 0, false),
		Entry("word", "nucleus", 0, false),
	)

	It("should mask every blank", func() {
		Expect(maskBlanks("{{DNA}} and {{RNA}}")).To(Equal("_____ and _____"))
		Expect(maskBlanks("no blanks")).To(Equal("no blanks"))
	})

	It("should label options", func() {
		Expect(optionLabel(0)).To(Equal("A"))
		Expect(optionLabel(25)).To(Equal("Z"))
		Expect(optionLabel(26)).To(Equal("27"))
	})
})

var _ = Describe("output helpers", func() {
	DescribeTable("renderBar",
		func(done, total, width int, expected string) {
			Expect(renderBar(done, total, width)).To(Equal(expected))
		},
		Entry("empty", 0, 4, 20, "[--------------] 0/4"),
		Entry("half", 2, 4, 20, "[#######-------] 2/4"),
		Entry("full", 4, 4, 20, "[##############] 4/4"),
		Entry("nothing to do", 0, 0, 20, "[--------------] 0/0"),
		Entry("narrow", 1, 2, 5, "[#####-----] 1/2"),
	)

	It("should collapse and truncate long lines", func() {
		Expect(oneLine("a\n  b\tc")).To(Equal("a b c"))
		long := strings.Repeat("x", 80)
		Expect(oneLine(long)).To(Equal(strings.Repeat("x", 67) + "..."))
	})

	It("should format sizes", func() {
		Expect(humanSize(512)).To(Equal("512 B"))
		Expect(humanSize(2048)).To(Equal("2.0 KiB"))
		Expect(humanSize(5 * 1024 * 1024)).To(Equal("5.0 MiB"))
	})

	It("should describe each shape", func() {
		Expect(describe(models.NewPair("a", "b"))).To(Equal("a = b"))
		Expect(describe(models.NewFillBlank("{{x}} y", "x", "z"))).To(Equal("{{x}} y -> x | z"))
		Expect(describe(models.NewMultipleChoice("Q", []string{"a", "b"}, 1))).To(Equal("Q (2 options, answer: b)"))
		Expect(describe(models.NewMultipleChoice("Q", nil, -1))).To(Equal("Q (0 options, answer: ?)"))
	})
})
