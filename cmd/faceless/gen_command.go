package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"faceless/internal/ipc"
)

func newGenCommand(ctx *commandContext) *cobra.Command {
	genCmd := &cobra.Command{
		Use:   "gen",
		Short: "Adjust image generation parameters",
	}
	genCmd.AddCommand(newGenSetCommand(ctx))
	return genCmd
}

func newGenSetCommand(ctx *commandContext) *cobra.Command {
	var seed int64
	var steps int
	var cfgScale float64
	var samplerName string
	var scheduler string
	var qualityTags string
	var negative string
	var checkpoint string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Apply sampler settings for subsequent turns",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ipc.SetGenParamsRequest{
				Steps:       steps,
				CFG:         cfgScale,
				SamplerName: samplerName,
				Scheduler:   scheduler,
				QualityTags: qualityTags,
				Negative:    negative,
				Checkpoint:  checkpoint,
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SetGenParams(req)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Updated {
					fmt.Fprintln(stdout, "Generation parameters updated")
				} else {
					fmt.Fprintln(stdout, "Generation parameters unchanged")
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "Fixed seed; omit for a fresh random seed per turn")
	cmd.Flags().IntVar(&steps, "steps", 8, "Sampling steps")
	cmd.Flags().Float64Var(&cfgScale, "cfg", 2.2, "Classifier-free guidance scale")
	cmd.Flags().StringVar(&samplerName, "sampler", "euler_ancestral", "Sampler name")
	cmd.Flags().StringVar(&scheduler, "scheduler", "simple", "Scheduler name")
	cmd.Flags().StringVar(&qualityTags, "quality", "", "Quality tag prefix for the positive prompt")
	cmd.Flags().StringVar(&negative, "negative", "", "Negative prompt")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "Checkpoint file to load (empty keeps the template checkpoint)")
	return cmd
}
