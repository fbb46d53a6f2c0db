package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/deps"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/memo"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/vault"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/vaultindex"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending memos and processing state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			store, err := vaultindex.Open(cfg.IndexPath())
			if err != nil {
				return fmt.Errorf("open vault index: %w", err)
			}
			defer store.Close()

			recordings, err := memo.Scan(cfg.Paths.AudioDir)
			if err != nil {
				return fmt.Errorf("scan audio folder: %w", err)
			}
			processed, err := store.ProcessedStems(cmd.Context())
			if err != nil {
				return fmt.Errorf("read processed records: %w", err)
			}
			inbox := vault.NewInbox(cfg.InboxPath())

			rows := make([][]string, 0, len(recordings))
			pending := 0
			for _, rec := range recordings {
				state := "pending"
				if _, ok := processed[rec.Stem]; ok {
					state = "processed"
				} else if exists, _ := inbox.NoteExists(rec.Stem); exists {
					state = "note exists"
				} else {
					pending++
				}
				rows = append(rows, []string{
					rec.Stem,
					state,
					rec.ModTime.Format(time.DateTime),
				})
			}

			fmt.Fprintf(out, "Audio folder: %s\n", cfg.Paths.AudioDir)
			fmt.Fprintf(out, "Vault inbox:  %s\n", cfg.InboxPath())
			fmt.Fprintf(out, "Index:        %s\n\n", cfg.IndexPath())

			if len(rows) == 0 {
				fmt.Fprintln(out, "No voice memos in the audio folder.")
			} else {
				fmt.Fprintln(out, renderTable(out, []string{"Memo", "State", "Recorded"}, rows))
				fmt.Fprintf(out, "\n%d memo(s), %d pending\n", len(rows), pending)
			}

			fmt.Fprintf(out, "Rate limits: %d req/min, %d tokens/min, %d req/day\n",
				cfg.Groq.RPMLimit, cfg.Groq.TPMLimit, cfg.Groq.RPDLimit)

			for _, status := range deps.CheckBinaries(deps.Defaults()) {
				state := "ok"
				if !status.Available {
					state = status.Detail
				}
				fmt.Fprintf(out, "Tool %s: %s\n", status.Name, state)
			}
			return nil
		},
	}
}
