package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"faceless/internal/ipc"
)

func newCatalogsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List LoRA and checkpoint files known to the image backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Catalogs()
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				rows := make([][]string, 0, len(resp.Loras)+len(resp.Checkpoints))
				for _, name := range resp.Checkpoints {
					rows = append(rows, []string{"checkpoint", name})
				}
				for _, name := range resp.Loras {
					rows = append(rows, []string{"lora", name})
				}
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "No models reported; is the image backend reachable?")
					return nil
				}
				fmt.Fprintln(stdout, renderTable([]string{"Kind", "Name"}, rows, []columnAlignment{alignLeft, alignLeft}))
				return nil
			})
		},
	}
}
