// -- cmd/status.go --
package cmd

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pageweaver/pageweaver/internal/agent"
	"github.com/pageweaver/pageweaver/internal/observability"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check connectivity to the database and the agent runtime",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if appCfg.Database.URL == "" {
			fmt.Fprintln(out, "database: not configured")
		} else if pool, err := pgxpool.New(ctx, appCfg.Database.URL); err != nil {
			fmt.Fprintf(out, "database: error (%v)\n", err)
		} else {
			defer pool.Close()
			if err := pool.Ping(ctx); err != nil {
				fmt.Fprintf(out, "database: unreachable (%v)\n", err)
			} else {
				fmt.Fprintln(out, "database: ok")
			}
		}

		client, err := agent.NewClient(appCfg.Agent, observability.GetLogger())
		if err != nil {
			fmt.Fprintf(out, "agent: not configured (%v)\n", err)
			return nil
		}
		if err := client.VerifyConnection(ctx); err != nil {
			fmt.Fprintf(out, "agent: unreachable (%v)\n", err)
			return nil
		}
		fmt.Fprintln(out, "agent: ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
