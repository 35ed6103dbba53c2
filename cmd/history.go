// -- cmd/history.go --
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	historySiteID int64
	historyPageID int64
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a site's prompt history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		attempts, err := a.editor.History(cmd.Context(), historySiteID, historyLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), attempts)
	},
}

var modificationsCmd = &cobra.Command{
	Use:   "modifications",
	Short: "List a site's recorded modifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var pageID *int64
		if historyPageID != 0 {
			pageID = &historyPageID
		}

		mods, err := a.editor.Modifications(cmd.Context(), historySiteID, pageID, historyLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), mods)
	},
}

func init() {
	for _, c := range []*cobra.Command{historyCmd, modificationsCmd} {
		c.Flags().Int64Var(&historySiteID, "site", 0, "site id")
		c.Flags().IntVar(&historyLimit, "limit", 50, "maximum rows to return")
		c.MarkFlagRequired("site")
	}
	modificationsCmd.Flags().Int64Var(&historyPageID, "page", 0, "narrow to one page id")

	rootCmd.AddCommand(historyCmd, modificationsCmd)
}
