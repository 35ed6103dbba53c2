// -- cmd/pages.go --
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	pagesSiteName string
	pagesPutName  string
	pagesPutFile  string
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Inspect and manage stored page artifacts",
}

var pagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a site's stored pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newStorageApp()
		if err != nil {
			return err
		}

		entries, err := a.pages.List(cmd.Context(), pagesSiteName)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), entries)
	},
}

var pagesGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print a stored page's HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newStorageApp()
		if err != nil {
			return err
		}

		page, err := a.pages.Retrieve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), page.HTML)
		return nil
	},
}

var pagesPutCmd = &cobra.Command{
	Use:   "put",
	Short: "Upload a local HTML file as a stored page",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newStorageApp()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(pagesPutFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", pagesPutFile, err)
		}

		stored, err := a.pages.Store(cmd.Context(), pagesSiteName, pagesPutName, string(data), nil)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), stored)
	},
}

var pagesDeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete a stored page and its metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newStorageApp()
		if err != nil {
			return err
		}

		if err := a.pages.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	pagesCmd.PersistentFlags().StringVar(&pagesSiteName, "site-name", "", "logical site name, e.g. mysite")

	pagesPutCmd.Flags().StringVar(&pagesPutName, "name", "", "logical page name")
	pagesPutCmd.Flags().StringVarP(&pagesPutFile, "file", "f", "", "local HTML file to upload")
	pagesPutCmd.MarkFlagRequired("name")
	pagesPutCmd.MarkFlagRequired("file")

	pagesCmd.AddCommand(pagesListCmd, pagesGetCmd, pagesPutCmd, pagesDeleteCmd)
	rootCmd.AddCommand(pagesCmd)
}
