package models

import "github.com/kpauljoseph/cardforge/pkg/utils"

// Counts is the number of cards requested per shape.
type Counts struct {
	Pair           int `json:"term_definition"`
	FillBlank      int `json:"fill_blank"`
	MultipleChoice int `json:"multiple_choice"`
}

// Clamp bounds every count to [0, 50].
func (c Counts) Clamp() Counts {
	return Counts{
		Pair:           utils.ClampCount(c.Pair),
		FillBlank:      utils.ClampCount(c.FillBlank),
		MultipleChoice: utils.ClampCount(c.MultipleChoice),
	}
}

func (c Counts) Total() int {
	return c.Pair + c.FillBlank + c.MultipleChoice
}
