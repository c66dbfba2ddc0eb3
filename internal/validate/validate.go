package validate

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kpauljoseph/cardforge/pkg/models"
	"github.com/kpauljoseph/cardforge/pkg/utils"
)

var (
	ErrNoVariant         = errors.New("validate: card has no shape")
	ErrEmptyText         = errors.New("validate: required text is empty")
	ErrTooFewOptions     = errors.New("validate: multiple choice needs at least 2 options")
	ErrBlankOption       = errors.New("validate: multiple choice option is blank")
	ErrNoAnswers         = errors.New("validate: fill-in-the-blank card has no answers")
	ErrCorrectIndexRange = errors.New("validate: correct index out of range")
)

const MinOptions = 2

var policy = bluemonday.UGCPolicy().
	AllowElements("img").
	AllowAttrs("src", "alt").OnElements("img").
	AllowElements("math", "span").
	AllowAttrs("class").OnElements("span")

// Text sanitises author-entered markup and rejects input that is empty once
// unsafe content is removed.
func Text(input string) (string, error) {
	sanitised := unescape(policy.Sanitize(input))
	if strings.TrimSpace(sanitised) == "" {
		return "", fmt.Errorf("%w: input is empty or unsafe", ErrEmptyText)
	}
	return sanitised, nil
}

// unescape undoes the entity encoding bluemonday applies to plain text so
// quotes, ampersands and angle brackets are stored as typed. Escaped input
// that would turn back into unsafe markup stays escaped.
func unescape(sanitised string) string {
	plain := html.UnescapeString(sanitised)
	if html.UnescapeString(policy.Sanitize(plain)) != plain {
		return sanitised
	}
	return plain
}

// Answers drops blank entries and exact duplicates, keeping first-seen order.
func Answers(raw []string) []string {
	return utils.UniqueNonBlank(raw)
}

// Variant checks the shape invariants of v and reports every violation.
func Variant(v models.Variant) error {
	switch v.Kind() {
	case models.KindPair:
		return pair(v.Pair)
	case models.KindFillBlank:
		return fillBlank(v.FillBlank)
	case models.KindMultipleChoice:
		return multipleChoice(v.MultipleChoice)
	}
	return ErrNoVariant
}

func pair(p *models.Pair) error {
	var errs []error
	if strings.TrimSpace(p.Term) == "" {
		errs = append(errs, fmt.Errorf("%w: term", ErrEmptyText))
	}
	if strings.TrimSpace(p.Definition) == "" {
		errs = append(errs, fmt.Errorf("%w: definition", ErrEmptyText))
	}
	return errors.Join(errs...)
}

func fillBlank(f *models.FillBlank) error {
	var errs []error
	if strings.TrimSpace(f.Template) == "" {
		errs = append(errs, fmt.Errorf("%w: template", ErrEmptyText))
	}
	if len(Answers(f.Answers)) == 0 {
		errs = append(errs, ErrNoAnswers)
	}
	for i, a := range f.Answers {
		if strings.TrimSpace(a) == "" {
			errs = append(errs, fmt.Errorf("%w: answer %d is blank", ErrNoAnswers, i))
		}
	}
	return errors.Join(errs...)
}

func multipleChoice(m *models.MultipleChoice) error {
	var errs []error
	if strings.TrimSpace(m.Prompt) == "" {
		errs = append(errs, fmt.Errorf("%w: prompt", ErrEmptyText))
	}
	if len(m.Options) < MinOptions {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrTooFewOptions, len(m.Options)))
	}
	for i, opt := range m.Options {
		if strings.TrimSpace(opt) == "" {
			errs = append(errs, fmt.Errorf("%w: option %d", ErrBlankOption, i))
		}
	}
	if m.CorrectIndex < 0 || m.CorrectIndex >= len(m.Options) {
		errs = append(errs, fmt.Errorf("%w: %d not in [0, %d)", ErrCorrectIndexRange, m.CorrectIndex, len(m.Options)))
	}
	return errors.Join(errs...)
}
