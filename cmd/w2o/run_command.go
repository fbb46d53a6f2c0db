package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var drain bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the oldest unprocessed voice memo",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := buildLogger(cfg, false)
			if err != nil {
				return err
			}
			rt, err := buildRuntime(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			processed := 0
			for {
				outcome, err := rt.runner.Run(cmd.Context())
				if err != nil {
					return err
				}
				if !outcome.Processed {
					break
				}
				processed++
				fmt.Fprintf(out, "Processed %s -> %s\n", outcome.Context.Stem(), outcome.Context.NotePath)
				for _, advisory := range outcome.Context.Advisories {
					fmt.Fprintf(out, "  warning: %s\n", advisory)
				}
				if !drain {
					break
				}
			}
			if processed == 0 {
				fmt.Fprintln(out, "No new voice memos.")
			} else {
				fmt.Fprintf(out, "Rate usage: %s\n", rt.limiter.Snapshot())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&drain, "all", false, "Keep processing until no unprocessed memos remain")
	return cmd
}
