package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kpauljoseph/cardforge/pkg/updater"
	"github.com/kpauljoseph/cardforge/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var (
		detailed bool
		check    bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the cardforge version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if detailed {
				fmt.Fprint(out, version.GetDetailedVersionInfo())
			} else {
				fmt.Fprintln(out, version.GetVersionInfo())
			}
			if !check {
				return nil
			}

			info, err := updater.NewChecker(nil).Check(cmd.Context())
			if err != nil {
				return fmt.Errorf("update check failed: %w", err)
			}
			if info.IsAvailable {
				fmt.Fprintln(out, color.YellowString("cardforge %s is available: %s", info.LatestVersion, info.DownloadURL))
			} else {
				fmt.Fprintln(out, "cardforge is up to date")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "include the commit")
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub for a newer release")
	return cmd
}
