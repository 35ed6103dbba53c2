// -- cmd/validate.go --
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageweaver/pageweaver/internal/htmlproc"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate an HTML file against the configured tag policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		allowed := htmlproc.NewTagSet(appCfg.Processing.AllowedTags)
		report := htmlproc.Validate(string(data), allowed)

		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if !report.Valid {
			return fmt.Errorf("%s is not valid HTML", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
