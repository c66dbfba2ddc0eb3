// Package codec maps card variants onto the two-field storage shape and back.
//
// Decoding runs an ordered list of rules; the first rule whose predicate
// matches builds the variant. Side-channel fields (type tag, answer list,
// option list, correct index) are preferred over what can be recovered from
// front/back, but back alone is always enough to rebuild a variant.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kpauljoseph/cardforge/internal/blank"
	"github.com/kpauljoseph/cardforge/pkg/models"
	"github.com/kpauljoseph/cardforge/pkg/utils"
)

var ErrNoVariant = errors.New("codec: variant has no shape")

// Target carries the identifiers an encoded card is written against.
type Target struct {
	CardID  string
	GroupID string
}

// choiceBack is the serialised back of a multiple choice card.
type choiceBack struct {
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

type rule struct {
	kind  models.Kind
	match func(models.StoredCard, backView) bool
	build func(models.StoredCard, backView) models.Variant
}

var rules = []rule{
	{kind: models.KindMultipleChoice, match: isMultipleChoice, build: buildMultipleChoice},
	{kind: models.KindFillBlank, match: isFillBlank, build: buildFillBlank},
	{kind: models.KindPair, match: func(models.StoredCard, backView) bool { return true }, build: buildPair},
}

// Rules lists the decode rules in priority order.
func Rules() []models.Kind {
	kinds := make([]models.Kind, len(rules))
	for i, r := range rules {
		kinds[i] = r.kind
	}
	return kinds
}

// Infer reports which rule Decode would apply to c.
func Infer(c models.StoredCard) models.Kind {
	back := parseBack(c.Back)
	for _, r := range rules {
		if r.match(c, back) {
			return r.kind
		}
	}
	return models.KindPair
}

func Decode(c models.StoredCard) models.Variant {
	back := parseBack(c.Back)
	var v models.Variant
	for _, r := range rules {
		if r.match(c, back) {
			v = r.build(c, back)
			break
		}
	}
	v.TermImage = c.TermImage
	v.DefinitionImage = c.DefinitionImage
	return v
}

// DecodeCard decodes c and keeps its storage id.
func DecodeCard(c models.StoredCard) models.Card {
	return models.Card{ID: c.ID, Variant: Decode(c)}
}

func DecodeAll(cards []models.StoredCard) []models.Card {
	out := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		out = append(out, DecodeCard(c))
	}
	return out
}

// Encode maps v onto the storage shape. The type tag is always set. A fill-in
// template is written as-is; keeping its markers in line with the answer list
// is up to the caller.
func Encode(v models.Variant, target Target) (models.StoredCard, error) {
	c := models.StoredCard{
		ID:              target.CardID,
		GroupID:         target.GroupID,
		Type:            v.Kind(),
		TermImage:       v.TermImage,
		DefinitionImage: v.DefinitionImage,
	}

	switch v.Kind() {
	case models.KindPair:
		c.Front = v.Pair.Term
		c.Back = v.Pair.Definition
	case models.KindFillBlank:
		answers := append([]string{}, v.FillBlank.Answers...)
		back, err := marshal(answers)
		if err != nil {
			return models.StoredCard{}, err
		}
		c.Front = v.FillBlank.Template
		c.Back = back
		c.FillBlankAnswers = answers
	case models.KindMultipleChoice:
		options := append([]string{}, v.MultipleChoice.Options...)
		back, err := marshal(choiceBack{Options: options, CorrectIndex: v.MultipleChoice.CorrectIndex})
		if err != nil {
			return models.StoredCard{}, err
		}
		index := v.MultipleChoice.CorrectIndex
		c.Front = v.MultipleChoice.Prompt
		c.Back = back
		c.MultipleChoiceOptions = options
		c.CorrectAnswerIndex = &index
	default:
		return models.StoredCard{}, ErrNoVariant
	}
	return c, nil
}

func isMultipleChoice(c models.StoredCard, back backView) bool {
	if c.Type == models.KindMultipleChoice {
		return true
	}
	if c.Type.Known() {
		return false
	}
	return back.choice != nil || len(c.MultipleChoiceOptions) > 0
}

// isFillBlank honours an explicit tag; markers and answer lists only decide
// for untagged records, so a pair whose term contains braces stays a pair.
func isFillBlank(c models.StoredCard, back backView) bool {
	if c.Type == models.KindFillBlank {
		return true
	}
	if c.Type.Known() {
		return false
	}
	return blank.HasMarker(c.Front) ||
		len(utils.UniqueNonBlank(c.FillBlankAnswers)) > 0 ||
		len(utils.UniqueNonBlank(back.list)) > 0
}

func buildMultipleChoice(c models.StoredCard, back backView) models.Variant {
	var options []string
	switch {
	case len(c.MultipleChoiceOptions) > 0:
		options = c.MultipleChoiceOptions
	case back.choice != nil:
		options = back.choice.options
	}

	index := 0
	switch {
	case c.CorrectAnswerIndex != nil:
		index = *c.CorrectAnswerIndex
	case back.choice != nil && back.choice.correctIndex != nil:
		index = *back.choice.correctIndex
	case back.choice != nil && back.choice.correctAnswerIndex != nil:
		index = *back.choice.correctAnswerIndex
	}

	return models.NewMultipleChoice(c.Front, append([]string{}, options...), index)
}

func buildFillBlank(c models.StoredCard, back backView) models.Variant {
	candidates := [][]string{
		c.FillBlankAnswers,
		blank.ExtractAnswers(c.Front),
		back.list,
		{back.text},
	}
	answers := []string{}
	for _, candidate := range candidates {
		if resolved := utils.UniqueNonBlank(candidate); len(resolved) > 0 {
			answers = resolved
			break
		}
	}
	return models.NewFillBlank(c.Front, answers...)
}

func buildPair(c models.StoredCard, _ backView) models.Variant {
	return models.NewPair(c.Front, c.Back)
}

type choiceView struct {
	options            []string
	correctIndex       *int
	correctAnswerIndex *int
}

// backView is back parsed once for every rule.
type backView struct {
	// text is back itself, or the unquoted value when back is a JSON string.
	text   string
	list   []string
	choice *choiceView
}

func parseBack(back string) backView {
	view := backView{text: back}
	trimmed := strings.TrimSpace(back)
	if trimmed == "" {
		return view
	}

	switch trimmed[0] {
	case '{':
		var obj struct {
			Options            []json.RawMessage `json:"options"`
			CorrectIndex       *int              `json:"correctIndex"`
			CorrectAnswerIndex *int              `json:"correctAnswerIndex"`
		}
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
			return view
		}
		raw, ok := probe["options"]
		if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
			return view
		}
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			// correct index of the wrong type: keep the options, default the index
			obj.CorrectIndex, obj.CorrectAnswerIndex = nil, nil
			if err := json.Unmarshal(raw, &obj.Options); err != nil {
				return view
			}
		}
		view.choice = &choiceView{
			options:            rawStrings(obj.Options),
			correctIndex:       obj.CorrectIndex,
			correctAnswerIndex: obj.CorrectAnswerIndex,
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
			view.list = rawStrings(items)
		}
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			view.text = s
		}
	}
	return view
}

// rawStrings converts JSON values to text: strings are unquoted, anything
// else keeps its literal JSON form.
func rawStrings(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(bytes.TrimSpace(item)))
	}
	return out
}

func marshal(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
