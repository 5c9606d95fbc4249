package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"faceless/internal/ipc"
)

func newCharacterCommand(ctx *commandContext) *cobra.Command {
	characterCmd := &cobra.Command{
		Use:   "character",
		Short: "Inspect or swap the active character",
	}
	characterCmd.AddCommand(newCharacterSetCommand(ctx))
	return characterCmd
}

func newCharacterSetCommand(ctx *commandContext) *cobra.Command {
	var visualBase string
	var identityProfile string
	var loraName string
	var loraStrength float64

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Swap the active character without restarting the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(visualBase) == "" && strings.TrimSpace(identityProfile) == "" {
				return fmt.Errorf("at least one of --visual-base or --identity is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetCharacter(ipc.SetCharacterRequest{
					VisualBase:      visualBase,
					IdentityProfile: identityProfile,
					LoraName:        loraName,
					LoraStrength:    loraStrength,
				})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Updated {
					fmt.Fprintln(stdout, "Character updated; next turn uses the new identity")
				} else {
					fmt.Fprintln(stdout, "Character unchanged")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&visualBase, "visual-base", "", "Base appearance tags for the image prompt")
	cmd.Flags().StringVar(&identityProfile, "identity", "", "Personality description for the language model")
	cmd.Flags().StringVar(&loraName, "lora", "", "LoRA file name (empty disables the LoRA)")
	cmd.Flags().Float64Var(&loraStrength, "lora-strength", 0.8, "LoRA strength applied to model and CLIP")
	return cmd
}
