package pipeline

import (
	"strconv"
	"strings"

	"github.com/kpauljoseph/cardforge/internal/blank"
	"github.com/kpauljoseph/cardforge/internal/generator"
	"github.com/kpauljoseph/cardforge/pkg/models"
	"github.com/kpauljoseph/cardforge/pkg/utils"
)

var optionLabels = []string{"A", "B", "C", "D", "E", "F"}

func MapPair(item generator.PairItem) models.Variant {
	return models.NewPair(string(item.Term), string(item.Definition))
}

// MapFillBlank swaps the underscore placeholder for an {{answer}} marker.
// When no usable answer survives filtering, the raw answer is kept as is.
func MapFillBlank(item generator.FillBlankItem) models.Variant {
	answers := utils.UniqueNonBlank(item.Answer.Values)
	if len(answers) == 0 {
		answers = []string{item.Answer.Raw}
	}
	template := blank.ReplacePlaceholder(string(item.Question), item.Answer.Raw)
	return models.NewFillBlank(template, answers...)
}

func MapMultipleChoice(item generator.MultipleChoiceItem) models.Variant {
	options := item.OptionStrings()
	return models.NewMultipleChoice(string(item.Question), options, ResolveCorrectIndex(options, string(item.CorrectAnswer)))
}

// ResolveCorrectIndex matches answer against the option texts
// (case-insensitive), then as a letter label A-F, then as a zero-based index.
// Unresolved answers fall back to 0, or -1 when there are no options.
func ResolveCorrectIndex(options []string, answer string) int {
	want := strings.ToLower(strings.TrimSpace(answer))
	for i, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == want {
			return i
		}
	}

	label := strings.ToUpper(strings.TrimSpace(answer))
	for i, l := range optionLabels {
		if l == label && i < len(options) {
			return i
		}
	}

	if n, err := strconv.Atoi(strings.TrimSpace(answer)); err == nil && n >= 0 && n < len(options) {
		return n
	}

	if len(options) > 0 {
		return 0
	}
	return -1
}
