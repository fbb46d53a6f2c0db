package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/vaultindex"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Vault index maintenance",
	}
	dbCmd.AddCommand(newDBWipeCommand(ctx))
	return dbCmd
}

func newDBWipeCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every record from the vault index",
		Long: "Delete every note, tag, link, and processed-memo record from the vault index.\n" +
			"Memos whose notes still sit in the inbox are not reprocessed: the note filename\n" +
			"alone marks them done. Run \"w2o harvest\" afterwards to rebuild vault context.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to wipe the index without --force")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := vaultindex.Open(cfg.IndexPath())
			if err != nil {
				return fmt.Errorf("open vault index: %w", err)
			}
			defer store.Close()

			if err := store.Wipe(cmd.Context()); err != nil {
				return fmt.Errorf("wipe index: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Vault index wiped.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm the wipe")
	return cmd
}
