package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kpauljoseph/cardforge/internal/material"
)

func newMaterialsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "materials",
		Short: "Inspect source materials",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List PDFs in the materials directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := material.NewLibrary(a.cfg.Materials.Dir, a.log)
			entries, err := lib.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%-50s %8s\n", e.Name, humanSize(e.Size))
			}
			return nil
		},
	})

	var textPages int
	show := &cobra.Command{
		Use:   "show <material>",
		Short: "Show page count, page sizes and text of a material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.materialSource().Load(cmd.Context(), material.Ref{Name: args[0]})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Material: %s\nType:     %s\nSize:     %s\n", doc.Name, doc.ContentType, humanSize(int64(len(doc.Data))))
			if !material.IsPDF(doc.ContentType, doc.Name) {
				return nil
			}

			fmt.Fprintf(out, "Pages:    %d\n", doc.Pages)
			dims, err := material.PageDims(doc.Data)
			if err != nil {
				return err
			}
			for i, d := range dims {
				fmt.Fprintf(out, "  Page %d: %.2f x %.2f points\n", i+1, d.Width, d.Height)
			}

			if textPages > 0 {
				text, err := material.ExtractText(doc.Data, textPages)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\n%s\n", text)
			}
			return nil
		},
	}
	show.Flags().IntVar(&textPages, "text", 0, "print the text of the first N pages")
	cmd.AddCommand(show)

	return cmd
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
