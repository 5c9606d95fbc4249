package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"faceless/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent persisted turns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Turns) == 0 {
					fmt.Fprintln(stdout, "No turns recorded yet")
					return nil
				}

				rows := make([][]string, 0, len(resp.Turns))
				for _, turn := range resp.Turns {
					rows = append(rows, []string{
						turn.CreatedAt,
						turn.Provider,
						truncate(turn.UserText, 40),
						truncate(turn.ReplyText, 40),
						turn.Location,
						yesNo(turn.ChangeScene),
					})
				}
				table := renderTable(
					[]string{"When", "Provider", "You", "Reply", "Location", "Scene change"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of turns to show")
	return cmd
}

func truncate(value string, max int) string {
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}
