package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/vaultindex"
)

func newHarvestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Rebuild the vault index by scanning every note in the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := vaultindex.Open(cfg.IndexPath())
			if err != nil {
				return fmt.Errorf("open vault index: %w", err)
			}
			defer store.Close()

			indexed, err := store.HarvestVault(cmd.Context(), cfg.Paths.VaultDir)
			if err != nil {
				return fmt.Errorf("harvest vault: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d note(s) from %s\n", indexed, cfg.Paths.VaultDir)
			return nil
		},
	}
}
