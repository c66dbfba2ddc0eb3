package models

import (
	"time"
)

// Kind tags the shape of a card. The zero value means the tag is absent.
type Kind string

const (
	KindNone           Kind = ""
	KindPair           Kind = "pair"
	KindFillBlank      Kind = "fillblank"
	KindMultipleChoice Kind = "multiplechoice"
)

func (k Kind) Known() bool {
	switch k {
	case KindPair, KindFillBlank, KindMultipleChoice:
		return true
	}
	return false
}

type Pair struct {
	Term       string
	Definition string
}

type FillBlank struct {
	Template string
	Answers  []string
}

type MultipleChoice struct {
	Prompt       string
	Options      []string
	CorrectIndex int
}

// Variant holds exactly one of Pair, FillBlank or MultipleChoice together
// with the attributes shared by every shape.
type Variant struct {
	Pair           *Pair
	FillBlank      *FillBlank
	MultipleChoice *MultipleChoice

	TermImage       *string
	DefinitionImage *string
	ReverseEnabled  bool
	AudioEnabled    bool
}

func NewPair(term, definition string) Variant {
	return Variant{Pair: &Pair{Term: term, Definition: definition}}
}

func NewFillBlank(template string, answers ...string) Variant {
	return Variant{FillBlank: &FillBlank{Template: template, Answers: answers}}
}

func NewMultipleChoice(prompt string, options []string, correctIndex int) Variant {
	return Variant{MultipleChoice: &MultipleChoice{Prompt: prompt, Options: options, CorrectIndex: correctIndex}}
}

func (v Variant) Kind() Kind {
	switch {
	case v.MultipleChoice != nil:
		return KindMultipleChoice
	case v.FillBlank != nil:
		return KindFillBlank
	case v.Pair != nil:
		return KindPair
	}
	return KindNone
}

// Front returns the text shown before the card is answered.
func (v Variant) Front() string {
	switch v.Kind() {
	case KindPair:
		return v.Pair.Term
	case KindFillBlank:
		return v.FillBlank.Template
	case KindMultipleChoice:
		return v.MultipleChoice.Prompt
	}
	return ""
}

// StoredCard is the flat two-field shape the record store persists.
type StoredCard struct {
	ID                    string   `json:"id,omitempty"`
	GroupID               string   `json:"flashcardSetId,omitempty"`
	Front                 string   `json:"front"`
	Back                  string   `json:"back"`
	Type                  Kind     `json:"type,omitempty"`
	TermImage             *string  `json:"term_image,omitempty"`
	DefinitionImage       *string  `json:"definition_image,omitempty"`
	FillBlankAnswers      []string `json:"fill_blank_answers,omitempty"`
	MultipleChoiceOptions []string `json:"multiple_choice_options,omitempty"`
	CorrectAnswerIndex    *int     `json:"correct_answer_index,omitempty"`
}

// CardPatch is a partial update; nil fields are left untouched.
type CardPatch struct {
	Front                 *string   `json:"front,omitempty"`
	Back                  *string   `json:"back,omitempty"`
	Type                  *Kind     `json:"type,omitempty"`
	TermImage             *string   `json:"term_image,omitempty"`
	DefinitionImage       *string   `json:"definition_image,omitempty"`
	FillBlankAnswers      *[]string `json:"fill_blank_answers,omitempty"`
	MultipleChoiceOptions *[]string `json:"multiple_choice_options,omitempty"`
	CorrectAnswerIndex    *int      `json:"correct_answer_index,omitempty"`
}

// PatchFrom builds a patch that overwrites every field of target with the
// corresponding field of card.
func PatchFrom(card StoredCard) CardPatch {
	p := CardPatch{
		Front:              &card.Front,
		Back:               &card.Back,
		Type:               &card.Type,
		TermImage:          card.TermImage,
		DefinitionImage:    card.DefinitionImage,
		CorrectAnswerIndex: card.CorrectAnswerIndex,
	}
	if card.FillBlankAnswers != nil {
		answers := card.FillBlankAnswers
		p.FillBlankAnswers = &answers
	}
	if card.MultipleChoiceOptions != nil {
		options := card.MultipleChoiceOptions
		p.MultipleChoiceOptions = &options
	}
	return p
}

// Apply returns card with the non-nil patch fields applied.
func (p CardPatch) Apply(card StoredCard) StoredCard {
	if p.Front != nil {
		card.Front = *p.Front
	}
	if p.Back != nil {
		card.Back = *p.Back
	}
	if p.Type != nil {
		card.Type = *p.Type
	}
	if p.TermImage != nil {
		card.TermImage = p.TermImage
	}
	if p.DefinitionImage != nil {
		card.DefinitionImage = p.DefinitionImage
	}
	if p.FillBlankAnswers != nil {
		card.FillBlankAnswers = *p.FillBlankAnswers
	}
	if p.MultipleChoiceOptions != nil {
		card.MultipleChoiceOptions = *p.MultipleChoiceOptions
	}
	if p.CorrectAnswerIndex != nil {
		card.CorrectAnswerIndex = p.CorrectAnswerIndex
	}
	return card
}

type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"studySetId,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Card is a decoded variant bound to its storage id.
type Card struct {
	ID      string
	Variant Variant
}
