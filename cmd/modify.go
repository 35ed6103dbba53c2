// -- cmd/modify.go --
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageweaver/pageweaver/internal/editor"
)

var (
	modifySiteID    int64
	modifyPageID    int64
	modifyUserID    int64
	modifyPrompt    string
	modifyFile      string
	modifyFrom      string
	modifySessionID string
	modifySaveTitle string
)

var modifyCmd = &cobra.Command{
	Use:   "modify",
	Short: "Modify existing HTML according to a natural-language prompt",
	Long: `Modify runs existing HTML through the agent pipeline. The input comes
either from a local file (--file) or from a stored page path (--from).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if modifyPrompt == "" {
			return fmt.Errorf("--prompt is required")
		}
		if (modifyFile == "") == (modifyFrom == "") {
			return fmt.Errorf("exactly one of --file or --from is required")
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var existing string
		if modifyFile != "" {
			data, err := os.ReadFile(modifyFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", modifyFile, err)
			}
			existing = string(data)
		} else {
			page, err := a.pages.Retrieve(cmd.Context(), modifyFrom)
			if err != nil {
				return err
			}
			existing = page.HTML
		}

		req := editor.ModifyRequest{
			SiteID:       modifySiteID,
			Prompt:       modifyPrompt,
			ExistingHTML: existing,
			SessionID:    modifySessionID,
			SaveTitle:    modifySaveTitle,
		}
		if modifyPageID != 0 {
			req.PageID = &modifyPageID
		}
		if modifyUserID != 0 {
			req.UserID = &modifyUserID
		}

		result, err := a.editor.ModifyPage(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	modifyCmd.Flags().Int64Var(&modifySiteID, "site", 0, "site id the page belongs to")
	modifyCmd.Flags().Int64Var(&modifyPageID, "page", 0, "id of the live page being modified (optional)")
	modifyCmd.Flags().Int64Var(&modifyUserID, "user", 0, "id of the requesting user")
	modifyCmd.Flags().StringVarP(&modifyPrompt, "prompt", "p", "", "the modification instructions")
	modifyCmd.Flags().StringVarP(&modifyFile, "file", "f", "", "local HTML file to modify")
	modifyCmd.Flags().StringVar(&modifyFrom, "from", "", "stored page path to modify, e.g. mysite/pages/home.html")
	modifyCmd.Flags().StringVar(&modifySessionID, "session", "", "agent session id to continue (optional)")
	modifyCmd.Flags().StringVar(&modifySaveTitle, "save-title", "", "persist the result to page storage under this title")
	modifyCmd.MarkFlagRequired("site")
	rootCmd.AddCommand(modifyCmd)
}
