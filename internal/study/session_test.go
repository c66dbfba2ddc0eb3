package study_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/cardforge/internal/study"
	"github.com/kpauljoseph/cardforge/pkg/models"
)

var _ = Describe("Session", func() {
	var (
		cards   []models.Card
		session *study.Session
	)

	BeforeEach(func() {
		cards = []models.Card{
			{ID: "1", Variant: models.NewFillBlank("{{Paris}}", "Paris")},
			{ID: "2", Variant: models.NewFillBlank("{{Rome}}", "Rome")},
			{ID: "3", Variant: models.NewPair("a", "b")},
		}
		var err error
		session, err = study.NewSession(cards)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should refuse an empty deck", func() {
		_, err := study.NewSession(nil)
		Expect(err).To(MatchError(study.ErrEmptyDeck))
	})

	It("should navigate within bounds", func() {
		Expect(session.HasPrev()).To(BeFalse())
		Expect(session.Prev()).To(BeFalse())
		Expect(session.Next()).To(BeTrue())
		Expect(session.Next()).To(BeTrue())
		Expect(session.Current().ID).To(Equal("3"))
		Expect(session.HasNext()).To(BeFalse())
		Expect(session.Next()).To(BeFalse())
		Expect(session.Index()).To(Equal(2))
	})

	It("should give every visit a fresh grader", func() {
		_, _ = session.Grader().SubmitText("Paris")
		Expect(session.Grader().State()).To(Equal(study.CheckedCorrect))

		Expect(session.Next()).To(BeTrue())
		Expect(session.Grader().State()).To(Equal(study.Unanswered))
		Expect(session.Grader().Input()).To(BeEmpty())

		Expect(session.Prev()).To(BeTrue())
		Expect(session.Grader().State()).To(Equal(study.Unanswered))
	})

	It("should reset the card when jumping to the same index", func() {
		_, _ = session.Grader().SubmitText("wrong")
		Expect(session.Goto(0)).To(Succeed())
		Expect(session.Grader().State()).To(Equal(study.Unanswered))
		Expect(session.Goto(5)).To(MatchError(study.ErrIndexRange))
	})

	It("should unflip a pair card when it is shown again", func() {
		Expect(session.Goto(2)).To(Succeed())
		Expect(session.Grader().Flip()).To(BeTrue())
		Expect(session.Prev()).To(BeTrue())
		Expect(session.Next()).To(BeTrue())
		Expect(session.Grader().Flipped()).To(BeFalse())
	})

	It("should tally the latest result of each card", func() {
		_, _ = session.Grader().SubmitText("Paris")
		session.Next()
		_, _ = session.Grader().SubmitText("Milan")
		_, _ = session.Grader().RevealAnswer()

		Expect(session.Score()).To(Equal(study.Score{Correct: 1, Revealed: 1}))

		session.Prev()
		session.Next()
		_, _ = session.Grader().SubmitText("Milan")
		Expect(session.Score()).To(Equal(study.Score{Correct: 1, Incorrect: 1}))
	})

	It("should shuffle and restart at the first card", func() {
		session.Next()
		session.Shuffle(rand.New(rand.NewSource(42)))
		Expect(session.Index()).To(Equal(0))
		Expect(session.Score()).To(Equal(study.Score{}))

		var ids []string
		for i := 0; i < session.Len(); i++ {
			Expect(session.Goto(i)).To(Succeed())
			ids = append(ids, session.Current().ID)
		}
		Expect(ids).To(ConsistOf("1", "2", "3"))
	})

	It("should not share the caller's slice", func() {
		cards[0] = models.Card{ID: "changed"}
		Expect(session.Current().ID).To(Equal("1"))
	})
})
