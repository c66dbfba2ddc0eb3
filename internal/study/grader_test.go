package study_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/cardforge/internal/study"
	"github.com/kpauljoseph/cardforge/pkg/models"
)

var _ = Describe("Grader", func() {
	Context("fill-in cards", func() {
		var g *study.Grader

		BeforeEach(func() {
			g = study.NewGrader(models.NewFillBlank("The capital of France is {{Paris}}", "Paris"))
		})

		It("should start unanswered", func() {
			Expect(g.State()).To(Equal(study.Unanswered))
			Expect(g.State().Checked()).To(BeFalse())
		})

		It("should grade ignoring case and surrounding space", func() {
			state, err := g.SubmitText("  paris ")
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(study.CheckedCorrect))
		})

		It("should grade a misspelling as incorrect", func() {
			state, err := g.SubmitText("pariss")
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(study.CheckedIncorrect))
		})

		It("should allow another attempt after an incorrect answer", func() {
			_, _ = g.SubmitText("Lyon")
			state, err := g.SubmitText("Paris")
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(study.CheckedCorrect))
		})

		It("should lock the card once answered correctly", func() {
			_, _ = g.SubmitText("Paris")
			Expect(g.SetInput("other")).To(MatchError(study.ErrLocked))
			_, err := g.Submit()
			Expect(err).To(MatchError(study.ErrLocked))
			Expect(g.Input()).To(Equal("Paris"))
		})

		It("should accept any listed answer", func() {
			g = study.NewGrader(models.NewFillBlank("{{colour}}", "colour", "color"))
			state, _ := g.SubmitText("COLOR")
			Expect(state).To(Equal(study.CheckedCorrect))
		})

		It("should fall back to the template markers without an answer list", func() {
			g = study.NewGrader(models.NewFillBlank("The {{sun}} rises"))
			state, _ := g.SubmitText("Sun")
			Expect(state).To(Equal(study.CheckedCorrect))
		})

		Context("reveal", func() {
			It("should only reveal after an incorrect check", func() {
				_, err := g.RevealAnswer()
				Expect(err).To(MatchError(study.ErrNotIncorrect))

				_, _ = g.SubmitText("Rome")
				answer, err := g.RevealAnswer()
				Expect(err).NotTo(HaveOccurred())
				Expect(answer).To(Equal("Paris"))
				Expect(g.State()).To(Equal(study.Revealed))
			})

			It("should not reveal after a correct answer", func() {
				_, _ = g.SubmitText("Paris")
				_, err := g.RevealAnswer()
				Expect(err).To(MatchError(study.ErrNotIncorrect))
			})
		})

		Context("hint", func() {
			It("should give the first letter without changing state", func() {
				hint, err := g.Hint()
				Expect(err).NotTo(HaveOccurred())
				Expect(hint).To(Equal("P"))
				Expect(g.CurrentHint()).To(Equal("P"))
				Expect(g.State()).To(Equal(study.Unanswered))
			})

			It("should refuse once something is typed", func() {
				Expect(g.SetInput("Pa")).To(Succeed())
				_, err := g.Hint()
				Expect(err).To(MatchError(study.ErrHintUnavailable))
			})

			It("should refuse after a check", func() {
				_, _ = g.SubmitText("x")
				Expect(g.SetInput("")).To(Succeed())
				_, err := g.Hint()
				Expect(err).To(MatchError(study.ErrHintUnavailable))
			})
		})

		It("should reject multiple-choice actions", func() {
			Expect(g.SelectOption(0)).To(MatchError(study.ErrWrongShape))
			Expect(g.OptionMarks()).To(BeNil())
		})
	})

	Context("multiple-choice cards", func() {
		var g *study.Grader

		BeforeEach(func() {
			g = study.NewGrader(models.NewMultipleChoice("Powerhouse of the cell?", []string{"Mitochondria", "Nucleus", "Ribosome"}, 0))
		})

		It("should require a selection before checking", func() {
			_, err := g.Submit()
			Expect(err).To(MatchError(study.ErrNoSelection))
		})

		It("should reject out-of-range options", func() {
			Expect(g.SelectOption(3)).To(MatchError(study.ErrOptionRange))
			Expect(g.SelectOption(-1)).To(MatchError(study.ErrOptionRange))
		})

		It("should keep every option neutral before the check", func() {
			Expect(g.SelectOption(1)).To(Succeed())
			Expect(g.OptionMarks()).To(Equal([]study.Mark{study.MarkNeutral, study.MarkNeutral, study.MarkNeutral}))
		})

		It("should mark the correct choice", func() {
			Expect(g.SelectOption(0)).To(Succeed())
			state, err := g.Submit()
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(study.CheckedCorrect))
			Expect(g.OptionMarks()).To(Equal([]study.Mark{study.MarkCorrect, study.MarkNeutral, study.MarkNeutral}))
		})

		It("should mark a wrong choice and the correct option", func() {
			Expect(g.SelectOption(2)).To(Succeed())
			state, _ := g.Submit()
			Expect(state).To(Equal(study.CheckedIncorrect))
			Expect(g.OptionMarks()).To(Equal([]study.Mark{study.MarkCorrect, study.MarkNeutral, study.MarkIncorrect}))
		})

		It("should not change after the check", func() {
			Expect(g.SelectOption(1)).To(Succeed())
			_, _ = g.Submit()
			before := g.OptionMarks()

			Expect(g.SelectOption(0)).To(MatchError(study.ErrAlreadyChecked))
			_, err := g.Submit()
			Expect(err).To(MatchError(study.ErrAlreadyChecked))

			Expect(g.OptionMarks()).To(Equal(before))
			selected, ok := g.Selected()
			Expect(ok).To(BeTrue())
			Expect(selected).To(Equal(1))
			Expect(g.State()).To(Equal(study.CheckedIncorrect))
		})

		It("should reject fill-in actions", func() {
			Expect(g.SetInput("x")).To(MatchError(study.ErrWrongShape))
			_, err := g.Hint()
			Expect(err).To(MatchError(study.ErrWrongShape))
		})
	})

	Context("pair cards", func() {
		It("should flip but not grade", func() {
			g := study.NewGrader(models.NewPair("term", "definition"))
			Expect(g.Flip()).To(BeTrue())
			Expect(g.Flipped()).To(BeTrue())
			Expect(g.Flip()).To(BeTrue())
			Expect(g.Flipped()).To(BeFalse())

			_, err := g.Submit()
			Expect(err).To(MatchError(study.ErrNotGradable))
		})

		It("should not flip other shapes", func() {
			g := study.NewGrader(models.NewFillBlank("{{a}}", "a"))
			Expect(g.Flip()).To(BeFalse())
		})
	})

	DescribeTable("Matches",
		func(input string, answers []string, want bool) {
			Expect(study.Matches(input, answers)).To(Equal(want))
		},
		Entry("exact", "Paris", []string{"Paris"}, true),
		Entry("case and space", "  paris ", []string{"Paris"}, true),
		Entry("misspelled", "pariss", []string{"Paris"}, false),
		Entry("second answer", "b", []string{"a", "B"}, true),
		Entry("no answers", "a", nil, false),
	)
})
