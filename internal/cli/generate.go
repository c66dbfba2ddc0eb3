package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kpauljoseph/cardforge/internal/material"
	"github.com/kpauljoseph/cardforge/internal/pipeline"
	"github.com/kpauljoseph/cardforge/pkg/models"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		req        pipeline.Request
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "generate <material>",
		Short: "Generate cards from a material and store them",
		Long: `Generate sends a material to the generation service and stores every
returned item as a card, pairs first, then fill-in-the-blank, then multiple
choice. Counts are capped at 50 per kind.

Examples:
  cardforge generate biology/cells.pdf --pairs 10 --fill-blank 5
  cardforge generate notes.pdf --multiple-choice 8 --group-id 12 --topic "Mitosis"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Material = material.Ref{Name: args[0]}
			p := pipeline.New(a.store, a.newGenerator(), a.materialSource(),
				pipeline.WithPacing(a.cfg.PacingDelay()),
				pipeline.WithLogger(a.log),
			)

			snapshots, err := p.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var bar *progressBar
			if !noProgress {
				bar = newProgressBar(out)
			}
			var last pipeline.Snapshot
			for s := range snapshots {
				last = s
				if bar != nil {
					bar.Update(s.Done, s.Total)
				}
			}
			if bar != nil {
				bar.Finish()
			}

			for i, c := range last.Cards {
				fmt.Fprintf(out, "%3d. %s %s\n", i+1, kindLabel(c.Variant.Kind()), oneLine(c.Variant.Front()))
			}
			summary := fmt.Sprintf("Saved %d of %d cards to group %s", len(last.Cards), last.Total, last.GroupID)
			switch {
			case !last.Complete:
				fmt.Fprintln(out, color.YellowString(summary+" (interrupted)"))
				return cmd.Context().Err()
			case len(last.Cards) < last.Total:
				fmt.Fprintln(out, color.YellowString(summary))
			default:
				fmt.Fprintln(out, color.GreenString(summary))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&req.Counts.Pair, "pairs", 0, "number of term/definition cards")
	f.IntVar(&req.Counts.FillBlank, "fill-blank", 0, "number of fill-in-the-blank cards")
	f.IntVar(&req.Counts.MultipleChoice, "multiple-choice", 0, "number of multiple-choice cards")
	f.StringVar(&req.GroupID, "group-id", "", "add cards to an existing group instead of creating one")
	f.StringVar(&req.GroupName, "group-name", "", "name of the group to create (defaults to the material name)")
	f.StringVar(&req.ParentID, "parent", "", "study set the new group belongs to")
	f.StringVar(&req.TopicContext, "topic", "", "topic hint passed to the generator")
	f.BoolVar(&noProgress, "no-progress", false, "do not draw the progress bar")
	return cmd
}

func kindLabel(k models.Kind) string {
	switch k {
	case models.KindPair:
		return color.BlueString("[pair]")
	case models.KindFillBlank:
		return color.MagentaString("[fill]")
	case models.KindMultipleChoice:
		return color.CyanString("[mc]  ")
	}
	return "[?]"
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 70 {
		return string(r[:67]) + "..."
	}
	return s
}
