package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kpauljoseph/cardforge/internal/blank"
	"github.com/kpauljoseph/cardforge/internal/codec"
	"github.com/kpauljoseph/cardforge/internal/study"
	"github.com/kpauljoseph/cardforge/pkg/models"
)

const studyHelp = `Commands: type an answer, or
  :n next card   :p previous card   :f flip (pair cards)
  :h hint        :r reveal answer   :q quit`

func newStudyCmd(a *app) *cobra.Command {
	var (
		shuffle bool
		seed    int64
	)
	cmd := &cobra.Command{
		Use:   "study <group-id>",
		Short: "Quiz yourself on a group of cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := a.store.ListCards(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error loading cards: %w", err)
			}
			session, err := study.NewSession(codec.DecodeAll(stored))
			if err != nil {
				return err
			}
			if shuffle {
				if seed == 0 {
					seed = time.Now().UnixNano()
				}
				session.Shuffle(rand.New(rand.NewSource(seed)))
			}

			r := &studyRunner{session: session, in: bufio.NewScanner(cmd.InOrStdin()), out: cmd.OutOrStdout()}
			r.run()
			return nil
		},
	}
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "shuffle the cards")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed (random when 0)")
	return cmd
}

type studyRunner struct {
	session *study.Session
	in      *bufio.Scanner
	out     io.Writer
}

func (r *studyRunner) run() {
	fmt.Fprintln(r.out, studyHelp)
	r.show()
	for {
		fmt.Fprint(r.out, "> ")
		if !r.in.Scan() {
			break
		}
		if !r.handle(r.in.Text()) {
			break
		}
	}
	r.summary()
}

// handle processes one input line and reports whether to keep going.
func (r *studyRunner) handle(line string) bool {
	g := r.session.Grader()
	cmd := strings.TrimSpace(line)

	switch cmd {
	case ":q":
		return false
	case ":n":
		if !r.session.Next() {
			fmt.Fprintln(r.out, "That was the last card.")
			return false
		}
		r.show()
		return true
	case ":p":
		if r.session.Prev() {
			r.show()
		}
		return true
	case ":f", "":
		if g.Flip() {
			r.show()
		}
		return true
	case ":h":
		hint, err := g.Hint()
		r.report(err, "Hint: starts with %q", hint)
		return true
	case ":r":
		answer, err := g.RevealAnswer()
		r.report(err, "Answer: %s", answer)
		return true
	}

	switch g.Variant().Kind() {
	case models.KindFillBlank:
		state, err := g.SubmitText(line)
		if err != nil {
			r.report(err, "")
			return true
		}
		r.verdict(state)
	case models.KindMultipleChoice:
		i, ok := parseChoice(cmd)
		if !ok {
			fmt.Fprintln(r.out, "Pick an option by letter or number.")
			return true
		}
		if err := g.SelectOption(i); err != nil {
			r.report(err, "")
			return true
		}
		state, err := g.Submit()
		if err != nil {
			r.report(err, "")
			return true
		}
		r.verdict(state)
		r.showOptions()
	default:
		fmt.Fprintln(r.out, "Press Enter to flip, :n for the next card.")
	}
	return true
}

func (r *studyRunner) show() {
	g := r.session.Grader()
	v := g.Variant()
	fmt.Fprintf(r.out, "\n%s %d/%d\n", color.HiBlackString("Card"), r.session.Index()+1, r.session.Len())

	switch v.Kind() {
	case models.KindPair:
		if g.Flipped() {
			fmt.Fprintln(r.out, color.HiWhiteString(v.Pair.Definition))
		} else {
			fmt.Fprintln(r.out, color.HiWhiteString(v.Pair.Term))
		}
	case models.KindFillBlank:
		fmt.Fprintln(r.out, color.HiWhiteString(maskBlanks(v.FillBlank.Template)))
	case models.KindMultipleChoice:
		fmt.Fprintln(r.out, color.HiWhiteString(v.MultipleChoice.Prompt))
		r.showOptions()
	}
}

func (r *studyRunner) showOptions() {
	g := r.session.Grader()
	marks := g.OptionMarks()
	for i, opt := range g.Variant().MultipleChoice.Options {
		line := fmt.Sprintf("  %s) %s", optionLabel(i), opt)
		switch marks[i] {
		case study.MarkCorrect:
			line = color.GreenString(line + "  ✓")
		case study.MarkIncorrect:
			line = color.RedString(line + "  ✗")
		}
		fmt.Fprintln(r.out, line)
	}
}

func (r *studyRunner) verdict(state study.State) {
	switch state {
	case study.CheckedCorrect:
		fmt.Fprintln(r.out, color.GreenString("Correct!"))
	case study.CheckedIncorrect:
		fmt.Fprintln(r.out, color.RedString("Not quite. Try again or :r to reveal."))
	}
}

func (r *studyRunner) report(err error, format string, args ...interface{}) {
	if err != nil {
		fmt.Fprintln(r.out, color.YellowString(studyMessage(err)))
		return
	}
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *studyRunner) summary() {
	s := r.session.Score()
	fmt.Fprintf(r.out, "\nCorrect: %d  Incorrect: %d  Revealed: %d\n", s.Correct, s.Incorrect, s.Revealed)
}

func studyMessage(err error) string {
	switch {
	case errors.Is(err, study.ErrLocked):
		return "Already answered correctly. :n for the next card."
	case errors.Is(err, study.ErrAlreadyChecked):
		return "Answer already checked."
	case errors.Is(err, study.ErrHintUnavailable):
		return "Hints are only available before you answer."
	case errors.Is(err, study.ErrNotIncorrect):
		return "Answer first; the solution is shown after a wrong guess."
	case errors.Is(err, study.ErrWrongShape), errors.Is(err, study.ErrNotGradable):
		return "Not available for this card."
	case errors.Is(err, study.ErrOptionRange):
		return "No such option."
	}
	return err.Error()
}

// maskBlanks hides the answers in a fill-in template.
func maskBlanks(template string) string {
	var sb strings.Builder
	for _, seg := range blank.Parse(template) {
		if seg.Kind == blank.Blank {
			sb.WriteString("_____")
			continue
		}
		sb.WriteString(seg.Content)
	}
	return sb.String()
}

func optionLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return strconv.Itoa(i + 1)
}

// parseChoice accepts a letter (A, b) or a 1-based number.
func parseChoice(s string) (int, bool) {
	if len(s) == 1 {
		c := strings.ToUpper(s)[0]
		if c >= 'A' && c <= 'Z' {
			return int(c - 'A'), true
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}
