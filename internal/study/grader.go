package study

import (
	"errors"
	"strings"

	"github.com/kpauljoseph/cardforge/internal/blank"
	"github.com/kpauljoseph/cardforge/pkg/models"
	"github.com/kpauljoseph/cardforge/pkg/utils"
)

var (
	ErrNotGradable     = errors.New("study: card shape is not graded")
	ErrWrongShape      = errors.New("study: action does not apply to this card shape")
	ErrLocked          = errors.New("study: card already answered correctly")
	ErrAlreadyChecked  = errors.New("study: answer already checked")
	ErrNoSelection     = errors.New("study: no option selected")
	ErrOptionRange     = errors.New("study: option index out of range")
	ErrNotIncorrect    = errors.New("study: answer can only be revealed after an incorrect check")
	ErrHintUnavailable = errors.New("study: hint only available before answering")
)

type State int

const (
	Unanswered State = iota
	CheckedCorrect
	CheckedIncorrect
	Revealed
)

func (s State) String() string {
	switch s {
	case CheckedCorrect:
		return "checked(correct)"
	case CheckedIncorrect:
		return "checked(incorrect)"
	case Revealed:
		return "revealed"
	}
	return "unanswered"
}

// Checked reports whether an answer has been graded.
func (s State) Checked() bool {
	return s != Unanswered
}

type Mark int

const (
	MarkNeutral Mark = iota
	MarkCorrect
	MarkIncorrect
)

// Grader evaluates answers for one visit of one card. It is never reused:
// a Session builds a new Grader whenever the active card changes.
type Grader struct {
	variant models.Variant
	answers []string

	state   State
	input   string
	hint    string
	pending *int
	flipped bool
}

func NewGrader(v models.Variant) *Grader {
	g := &Grader{variant: v}
	if v.FillBlank != nil {
		g.answers = fillBlankAnswers(v.FillBlank)
	}
	return g
}

// fillBlankAnswers falls back to the template markers when the card carries
// no answer list.
func fillBlankAnswers(f *models.FillBlank) []string {
	if answers := utils.UniqueNonBlank(f.Answers); len(answers) > 0 {
		return answers
	}
	return blank.ExtractAnswers(f.Template)
}

func (g *Grader) Variant() models.Variant {
	return g.variant
}

func (g *Grader) State() State {
	return g.state
}

// Flip toggles between term and definition faces of a pair card. Other
// shapes do not flip.
func (g *Grader) Flip() bool {
	if g.variant.Kind() != models.KindPair {
		return false
	}
	g.flipped = !g.flipped
	return true
}

func (g *Grader) Flipped() bool {
	return g.flipped
}

// SetInput records the learner's typed answer. Once the card is answered
// correctly the input is frozen.
func (g *Grader) SetInput(text string) error {
	if err := g.requireShape(models.KindFillBlank); err != nil {
		return err
	}
	if g.state == CheckedCorrect {
		return ErrLocked
	}
	g.input = text
	return nil
}

func (g *Grader) Input() string {
	return g.input
}

// Submit grades the current input (fill-in) or pending selection (multiple
// choice).
func (g *Grader) Submit() (State, error) {
	switch g.variant.Kind() {
	case models.KindFillBlank:
		return g.submitFillBlank()
	case models.KindMultipleChoice:
		return g.submitMultipleChoice()
	}
	return g.state, ErrNotGradable
}

// SubmitText sets the input and grades it in one step.
func (g *Grader) SubmitText(text string) (State, error) {
	if err := g.SetInput(text); err != nil {
		return g.state, err
	}
	return g.Submit()
}

func (g *Grader) submitFillBlank() (State, error) {
	if g.state == CheckedCorrect {
		return g.state, ErrLocked
	}
	if len(g.answers) == 0 {
		return g.state, ErrNotGradable
	}
	if Matches(g.input, g.answers) {
		g.state = CheckedCorrect
	} else {
		g.state = CheckedIncorrect
	}
	return g.state, nil
}

// Matches compares trimmed, lower-cased text against every answer.
func Matches(input string, answers []string) bool {
	want := normalise(input)
	for _, a := range answers {
		if normalise(a) == want {
			return true
		}
	}
	return false
}

func normalise(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// RevealAnswer exposes the first answer after an incorrect check.
func (g *Grader) RevealAnswer() (string, error) {
	if err := g.requireShape(models.KindFillBlank); err != nil {
		return "", err
	}
	if g.state != CheckedIncorrect && g.state != Revealed {
		return "", ErrNotIncorrect
	}
	g.state = Revealed
	return g.answers[0], nil
}

// CorrectAnswer is the answer shown once the card has been checked.
func (g *Grader) CorrectAnswer() string {
	if !g.state.Checked() || len(g.answers) == 0 {
		return ""
	}
	return g.answers[0]
}

// Hint returns the first character of the first answer. It is only offered
// while the card is unanswered and the input is empty, and leaves the grading
// state untouched.
func (g *Grader) Hint() (string, error) {
	if err := g.requireShape(models.KindFillBlank); err != nil {
		return "", err
	}
	if g.state != Unanswered || strings.TrimSpace(g.input) != "" {
		return "", ErrHintUnavailable
	}
	if len(g.answers) == 0 {
		return "", ErrNotGradable
	}
	g.hint = utils.FirstRune(strings.TrimSpace(g.answers[0]))
	return g.hint, nil
}

func (g *Grader) CurrentHint() string {
	return g.hint
}

// SelectOption records a pending choice. Selections are ignored once the
// answer has been checked.
func (g *Grader) SelectOption(i int) error {
	if err := g.requireShape(models.KindMultipleChoice); err != nil {
		return err
	}
	if g.state.Checked() {
		return ErrAlreadyChecked
	}
	if i < 0 || i >= len(g.variant.MultipleChoice.Options) {
		return ErrOptionRange
	}
	g.pending = &i
	return nil
}

// Selected returns the pending or graded choice.
func (g *Grader) Selected() (int, bool) {
	if g.pending == nil {
		return 0, false
	}
	return *g.pending, true
}

func (g *Grader) submitMultipleChoice() (State, error) {
	if g.state.Checked() {
		return g.state, ErrAlreadyChecked
	}
	if g.pending == nil {
		return g.state, ErrNoSelection
	}
	if *g.pending == g.variant.MultipleChoice.CorrectIndex {
		g.state = CheckedCorrect
	} else {
		g.state = CheckedIncorrect
	}
	return g.state, nil
}

// OptionMarks renders per-option correctness. Before the check every option
// is neutral; after it the correct option is always marked correct and a
// wrong choice is marked incorrect.
func (g *Grader) OptionMarks() []Mark {
	if g.variant.MultipleChoice == nil {
		return nil
	}
	marks := make([]Mark, len(g.variant.MultipleChoice.Options))
	if !g.state.Checked() {
		return marks
	}
	correct := g.variant.MultipleChoice.CorrectIndex
	if correct >= 0 && correct < len(marks) {
		marks[correct] = MarkCorrect
	}
	if g.pending != nil && *g.pending != correct {
		marks[*g.pending] = MarkIncorrect
	}
	return marks
}

func (g *Grader) requireShape(kind models.Kind) error {
	if g.variant.Kind() != kind {
		return ErrWrongShape
	}
	return nil
}
