package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kpauljoseph/cardforge/internal/codec"
	"github.com/kpauljoseph/cardforge/pkg/models"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <group-id>",
		Short: "List the cards of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := a.store.ListCards(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error listing cards: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(stored) == 0 {
				fmt.Fprintf(out, "Group %s has no cards\n", args[0])
				return nil
			}
			for i, c := range codec.DecodeAll(stored) {
				fmt.Fprintf(out, "%3d. %s %s\n", i+1, kindLabel(c.Variant.Kind()), describe(c.Variant))
			}
			return nil
		},
	}
}

func describe(v models.Variant) string {
	switch v.Kind() {
	case models.KindPair:
		return oneLine(v.Pair.Term) + " = " + oneLine(v.Pair.Definition)
	case models.KindFillBlank:
		return oneLine(v.FillBlank.Template) + " -> " + strings.Join(v.FillBlank.Answers, " | ")
	case models.KindMultipleChoice:
		m := v.MultipleChoice
		answer := "?"
		if m.CorrectIndex >= 0 && m.CorrectIndex < len(m.Options) {
			answer = m.Options[m.CorrectIndex]
		}
		return fmt.Sprintf("%s (%d options, answer: %s)", oneLine(m.Prompt), len(m.Options), answer)
	}
	return ""
}
