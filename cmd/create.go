// -- cmd/create.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pageweaver/pageweaver/internal/editor"
)

var (
	createSiteID    int64
	createUserID    int64
	createPrompt    string
	createSessionID string
	createSaveTitle string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new HTML page from a natural-language prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		if createPrompt == "" {
			return fmt.Errorf("--prompt is required")
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		req := editor.CreateRequest{
			SiteID:    createSiteID,
			Prompt:    createPrompt,
			SessionID: createSessionID,
			SaveTitle: createSaveTitle,
		}
		if createUserID != 0 {
			req.UserID = &createUserID
		}

		result, err := a.editor.CreatePage(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	createCmd.Flags().Int64Var(&createSiteID, "site", 0, "site id the page belongs to")
	createCmd.Flags().Int64Var(&createUserID, "user", 0, "id of the requesting user")
	createCmd.Flags().StringVarP(&createPrompt, "prompt", "p", "", "what the page should contain")
	createCmd.Flags().StringVar(&createSessionID, "session", "", "agent session id to continue (optional)")
	createCmd.Flags().StringVar(&createSaveTitle, "save-title", "", "persist the result to page storage under this title")
	createCmd.MarkFlagRequired("site")
	rootCmd.AddCommand(createCmd)
}
