// Package generator talks to the AI service that drafts card content from a
// source document.
package generator

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/kpauljoseph/cardforge/internal/material"
	"github.com/kpauljoseph/cardforge/pkg/models"
)

// ContentGenerator turns a document into raw card content. The returned
// arrays may be shorter than requested.
type ContentGenerator interface {
	Generate(ctx context.Context, doc material.Document, counts models.Counts, topic string) (Content, error)
}

type Content struct {
	Pair           []PairItem           `json:"term_definition"`
	FillBlank      []FillBlankItem      `json:"fill_blank"`
	MultipleChoice []MultipleChoiceItem `json:"multiple_choice"`
}

func (c Content) Total() int {
	return len(c.Pair) + len(c.FillBlank) + len(c.MultipleChoice)
}

type PairItem struct {
	Term       Text `json:"term"`
	Definition Text `json:"definition"`
}

// FillBlankItem's question marks the blank with a run of underscores.
type FillBlankItem struct {
	Question Text       `json:"question"`
	Answer   AnswerList `json:"answer"`
}

type MultipleChoiceItem struct {
	Question      Text   `json:"question"`
	Options       TextList `json:"options"`
	CorrectAnswer Text     `json:"correct_answer"`
}

// Items that are not JSON objects decode as empty items instead of failing
// their siblings.

func (p *PairItem) UnmarshalJSON(data []byte) error {
	type plain PairItem
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		v = plain{}
	}
	*p = PairItem(v)
	return nil
}

func (f *FillBlankItem) UnmarshalJSON(data []byte) error {
	type plain FillBlankItem
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		v = plain{}
	}
	*f = FillBlankItem(v)
	return nil
}

func (m *MultipleChoiceItem) UnmarshalJSON(data []byte) error {
	type plain MultipleChoiceItem
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		v = plain{}
	}
	*m = MultipleChoiceItem(v)
	return nil
}

// OptionStrings returns the options as plain strings.
func (m MultipleChoiceItem) OptionStrings() []string {
	out := make([]string, len(m.Options))
	for i, o := range m.Options {
		out[i] = string(o)
	}
	return out
}

// Text accepts a JSON string, number or boolean; null becomes "". Objects,
// arrays and anything else keep their raw JSON text so one malformed field
// never fails the whole response.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case string(data) == "null":
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*t = Text(data)
			return nil
		}
		*t = Text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*t = Text(n.String())
			return nil
		}
		*t = Text(data)
	}
	return nil
}

// TextList accepts an array of values or a single value; an object yields
// no entries.
type TextList []Text

func (l *TextList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case string(data) == "null", len(data) == 0, data[0] == '{':
		*l = nil
	case data[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			*l = nil
			return nil
		}
		out := make(TextList, len(raw))
		for i, r := range raw {
			_ = out[i].UnmarshalJSON(r)
		}
		*l = out
	default:
		var t Text
		_ = t.UnmarshalJSON(data)
		*l = TextList{t}
	}
	return nil
}

// AnswerList accepts a single answer or an array of answers. Raw keeps the
// single-string form for the placeholder fallback.
type AnswerList struct {
	Values []string
	Raw    string
}

func (a *AnswerList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items TextList
		_ = items.UnmarshalJSON(data)
		a.Values = make([]string, len(items))
		for i, item := range items {
			a.Values[i] = string(item)
		}
		a.Raw = ""
		if len(a.Values) > 0 {
			a.Raw = a.Values[0]
		}
		return nil
	}
	var t Text
	_ = t.UnmarshalJSON(data)
	a.Raw = string(t)
	a.Values = []string{a.Raw}
	return nil
}

func (a AnswerList) MarshalJSON() ([]byte, error) {
	if len(a.Values) == 1 {
		return json.Marshal(a.Values[0])
	}
	return json.Marshal(a.Values)
}

// requestCounts is the "requests" form field.
func requestCounts(c models.Counts) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
