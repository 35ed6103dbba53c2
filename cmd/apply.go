// -- cmd/apply.go --
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	applyModificationID int64
	applyPageID         int64
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Make a recorded modification live on a page",
	Long: `Apply replaces a page's content with a modification's HTML and marks the
modification as applied, atomically. A modification can be applied once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.editor.Apply(cmd.Context(), applyModificationID, applyPageID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	applyCmd.Flags().Int64Var(&applyModificationID, "modification", 0, "id of the modification to apply")
	applyCmd.Flags().Int64Var(&applyPageID, "page", 0, "id of the target page")
	applyCmd.MarkFlagRequired("modification")
	applyCmd.MarkFlagRequired("page")
	rootCmd.AddCommand(applyCmd)
}
