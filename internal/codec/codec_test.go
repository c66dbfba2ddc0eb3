package codec_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/cardforge/internal/codec"
	"github.com/kpauljoseph/cardforge/pkg/models"
)

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

var _ = Describe("Codec", func() {
	It("should list decode rules in priority order", func() {
		Expect(codec.Rules()).To(Equal([]models.Kind{
			models.KindMultipleChoice,
			models.KindFillBlank,
			models.KindPair,
		}))
	})

	Context("Encode", func() {
		target := codec.Target{CardID: "7", GroupID: "3"}

		It("should store a pair as term and definition", func() {
			c, err := codec.Encode(models.NewPair("Mitochondria", "Powerhouse of the cell"), target)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ID).To(Equal("7"))
			Expect(c.GroupID).To(Equal("3"))
			Expect(c.Type).To(Equal(models.KindPair))
			Expect(c.Front).To(Equal("Mitochondria"))
			Expect(c.Back).To(Equal("Powerhouse of the cell"))
		})

		It("should store fill-in answers as a JSON array and side channel", func() {
			c, err := codec.Encode(models.NewFillBlank("Water boils at {{100}} °C", "100", "one hundred"), target)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Type).To(Equal(models.KindFillBlank))
			Expect(c.Front).To(Equal("Water boils at {{100}} °C"))
			Expect(c.Back).To(Equal(`["100","one hundred"]`))
			Expect(c.FillBlankAnswers).To(Equal([]string{"100", "one hundred"}))
		})

		It("should store multiple choice as an options object and side channel", func() {
			c, err := codec.Encode(models.NewMultipleChoice("Largest planet?", []string{"Mars", "Jupiter <gas>"}, 1), target)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Type).To(Equal(models.KindMultipleChoice))
			Expect(c.Back).To(Equal(`{"options":["Mars","Jupiter <gas>"],"correctIndex":1}`))
			Expect(c.MultipleChoiceOptions).To(Equal([]string{"Mars", "Jupiter <gas>"}))
			Expect(c.CorrectAnswerIndex).To(Equal(intPtr(1)))
		})

		It("should reject a variant without a shape", func() {
			_, err := codec.Encode(models.Variant{}, target)
			Expect(err).To(MatchError(codec.ErrNoVariant))
		})
	})

	DescribeTable("round trip",
		func(v models.Variant) {
			c, err := codec.Encode(v, codec.Target{GroupID: "1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(codec.Decode(c)).To(Equal(v))

			c.Type = ""
			c.FillBlankAnswers = nil
			c.MultipleChoiceOptions = nil
			c.CorrectAnswerIndex = nil
			Expect(codec.Decode(c)).To(Equal(v), "front and back alone must be enough")
		},
		Entry("pair", models.NewPair("term", "definition")),
		Entry("fill-in with marker", models.NewFillBlank("The {{sun}} is a star", "sun")),
		Entry("fill-in without markers", models.NewFillBlank("Capital of France?", "Paris", "paris")),
		Entry("multiple choice", models.NewMultipleChoice("2+2?", []string{"3", "4", "5"}, 1)),
		Entry("images", func() models.Variant {
			v := models.NewPair("cat", "meow")
			v.TermImage = strPtr("https://img/cat.png")
			return v
		}()),
	)

	Context("Decode", func() {
		It("should decode a legacy record with an answer array back as fill-in", func() {
			v := codec.Decode(models.StoredCard{Front: "Capital of France?", Back: `["Paris"]`})
			Expect(v).To(Equal(models.NewFillBlank("Capital of France?", "Paris")))
		})

		It("should keep a pair whose back looks like an array when typed pair", func() {
			v := codec.Decode(models.StoredCard{Front: "Array literal", Back: `["a"]`, Type: models.KindPair})
			Expect(v.Kind()).To(Equal(models.KindPair))
			Expect(v.Pair.Definition).To(Equal(`["a"]`))
		})

		It("should keep a typed pair whose term contains braces", func() {
			v := models.NewPair("What does {{.Name}} print in a Go template?", "The Name field of the data")
			c, err := codec.Encode(v, codec.Target{GroupID: "1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Type).To(Equal(models.KindPair))
			Expect(codec.Decode(c)).To(Equal(v))
		})

		It("should ignore a stray answer list on a typed pair", func() {
			v := codec.Decode(models.StoredCard{
				Front:            "Term",
				Back:             "Definition",
				Type:             models.KindPair,
				FillBlankAnswers: []string{"x"},
			})
			Expect(v).To(Equal(models.NewPair("Term", "Definition")))
		})

		It("should decode an empty array back as a pair", func() {
			Expect(codec.Infer(models.StoredCard{Front: "x", Back: "[]"})).To(Equal(models.KindPair))
		})

		It("should treat an unknown type tag as absent", func() {
			c := models.StoredCard{Front: "Q", Back: `{"options":["a","b"],"correctIndex":1}`, Type: "quiz"}
			v := codec.Decode(c)
			Expect(v).To(Equal(models.NewMultipleChoice("Q", []string{"a", "b"}, 1)))
		})

		It("should infer fill-in from a marker in front", func() {
			v := codec.Decode(models.StoredCard{Front: "The {{ sun }} rises", Back: "whatever"})
			Expect(v).To(Equal(models.NewFillBlank("The {{ sun }} rises", "sun")))
		})

		It("should prefer the side-channel answers", func() {
			v := codec.Decode(models.StoredCard{
				Front:            "The {{sun}} rises",
				Back:             `["moon"]`,
				FillBlankAnswers: []string{"Sun", "sun", "Sun", " "},
			})
			Expect(v.FillBlank.Answers).To(Equal([]string{"Sun", "sun"}))
		})

		It("should fall back to the back text for a typed fill-in", func() {
			v := codec.Decode(models.StoredCard{Front: "Capital?", Back: "Paris", Type: models.KindFillBlank})
			Expect(v.FillBlank.Answers).To(Equal([]string{"Paris"}))
		})

		It("should unquote a JSON string back", func() {
			v := codec.Decode(models.StoredCard{Front: "Capital?", Back: `"Paris"`, Type: models.KindFillBlank})
			Expect(v.FillBlank.Answers).To(Equal([]string{"Paris"}))
		})

		It("should leave a typed fill-in without answers empty", func() {
			v := codec.Decode(models.StoredCard{Front: "Capital?", Back: " ", Type: models.KindFillBlank})
			Expect(v.Kind()).To(Equal(models.KindFillBlank))
			Expect(v.FillBlank.Answers).To(BeEmpty())
		})

		DescribeTable("multiple choice correct index priority",
			func(c models.StoredCard, want int) {
				c.Front = "Q"
				v := codec.Decode(c)
				Expect(v.Kind()).To(Equal(models.KindMultipleChoice))
				Expect(v.MultipleChoice.CorrectIndex).To(Equal(want))
			},
			Entry("side channel wins",
				models.StoredCard{Back: `{"options":["a","b","c"],"correctIndex":1}`, CorrectAnswerIndex: intPtr(2)}, 2),
			Entry("correctIndex",
				models.StoredCard{Back: `{"options":["a","b","c"],"correctIndex":1,"correctAnswerIndex":2}`}, 1),
			Entry("correctAnswerIndex",
				models.StoredCard{Back: `{"options":["a","b","c"],"correctAnswerIndex":2}`}, 2),
			Entry("default",
				models.StoredCard{Back: `{"options":["a","b"]}`}, 0),
			Entry("wrongly typed index",
				models.StoredCard{Back: `{"options":["a","b"],"correctIndex":"1"}`}, 0),
		)

		It("should take options from the side channel first", func() {
			v := codec.Decode(models.StoredCard{
				Front:                 "Q",
				Back:                  `{"options":["old","older"],"correctIndex":0}`,
				Type:                  models.KindMultipleChoice,
				MultipleChoiceOptions: []string{"new", "newer"},
			})
			Expect(v.MultipleChoice.Options).To(Equal([]string{"new", "newer"}))
		})

		It("should infer multiple choice from side-channel options", func() {
			c := models.StoredCard{Front: "Q", Back: "", MultipleChoiceOptions: []string{"x", "y"}, CorrectAnswerIndex: intPtr(1)}
			Expect(codec.Infer(c)).To(Equal(models.KindMultipleChoice))
		})

		It("should not treat an object without options as multiple choice", func() {
			Expect(codec.Infer(models.StoredCard{Front: "Q", Back: `{"answer":"x"}`})).To(Equal(models.KindPair))
		})

		It("should keep images", func() {
			c := models.StoredCard{Front: "a", Back: "b", TermImage: strPtr("t.png"), DefinitionImage: strPtr("d.png")}
			v := codec.Decode(c)
			Expect(*v.TermImage).To(Equal("t.png"))
			Expect(*v.DefinitionImage).To(Equal("d.png"))
		})
	})

	It("should decode cards with their ids", func() {
		cards := codec.DecodeAll([]models.StoredCard{
			{ID: "1", Front: "a", Back: "b"},
			{ID: "2", Front: "{{x}}", Back: `["x"]`},
		})
		Expect(cards).To(HaveLen(2))
		Expect(cards[0].ID).To(Equal("1"))
		Expect(cards[1].Variant.Kind()).To(Equal(models.KindFillBlank))
	})
})
