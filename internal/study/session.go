package study

import (
	"errors"
	"math/rand"

	"github.com/kpauljoseph/cardforge/pkg/models"
)

var (
	ErrEmptyDeck  = errors.New("study: no cards to study")
	ErrIndexRange = errors.New("study: card index out of range")
)

// Outcome is the graded result of one card visit.
type Outcome struct {
	CardID string
	State  State
}

type Score struct {
	Correct   int
	Incorrect int
	Revealed  int
}

// Session walks a deck of cards. The grader belongs to the card index that is
// currently displayed and is rebuilt from scratch on every index change.
type Session struct {
	cards    []models.Card
	index    int
	grader   *Grader
	outcomes map[int]Outcome
}

func NewSession(cards []models.Card) (*Session, error) {
	if len(cards) == 0 {
		return nil, ErrEmptyDeck
	}
	s := &Session{
		cards:    append([]models.Card{}, cards...),
		outcomes: make(map[int]Outcome),
	}
	s.visit(0)
	return s, nil
}

func (s *Session) visit(i int) {
	s.record()
	s.index = i
	s.grader = NewGrader(s.cards[i].Variant)
}

// record keeps the result of the visit being left, if it was graded.
func (s *Session) record() {
	if s.grader == nil || !s.grader.State().Checked() {
		return
	}
	s.outcomes[s.index] = Outcome{CardID: s.cards[s.index].ID, State: s.grader.State()}
}

func (s *Session) Len() int {
	return len(s.cards)
}

func (s *Session) Index() int {
	return s.index
}

func (s *Session) Current() models.Card {
	return s.cards[s.index]
}

func (s *Session) Grader() *Grader {
	return s.grader
}

func (s *Session) HasNext() bool {
	return s.index < len(s.cards)-1
}

func (s *Session) HasPrev() bool {
	return s.index > 0
}

func (s *Session) Next() bool {
	if !s.HasNext() {
		return false
	}
	s.visit(s.index + 1)
	return true
}

func (s *Session) Prev() bool {
	if !s.HasPrev() {
		return false
	}
	s.visit(s.index - 1)
	return true
}

// Goto jumps to card i. Jumping to the current index still resets its grader.
func (s *Session) Goto(i int) error {
	if i < 0 || i >= len(s.cards) {
		return ErrIndexRange
	}
	s.visit(i)
	return nil
}

// Shuffle reorders the deck and restarts at the first card. Results recorded
// so far are dropped since they are keyed by position.
func (s *Session) Shuffle(r *rand.Rand) {
	r.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
	s.grader = nil
	s.outcomes = make(map[int]Outcome)
	s.visit(0)
}

// Score tallies the latest graded outcome of every visited card, including
// the one on display.
func (s *Session) Score() Score {
	s.record()
	var score Score
	for _, o := range s.outcomes {
		switch o.State {
		case CheckedCorrect:
			score.Correct++
		case CheckedIncorrect:
			score.Incorrect++
		case Revealed:
			score.Revealed++
		}
	}
	return score
}
