package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set groq.api_key (or export GROQ_API_KEY) before processing memos.")
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "path", "", "Target path for the sample config")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing config file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config file: %s\n\n", ctx.configPath)
			}

			apiKey := "(not set)"
			if cfg.Groq.APIKey != "" {
				apiKey = "(set)"
			}
			rows := [][]string{
				{"paths.audio_dir", cfg.Paths.AudioDir},
				{"paths.vault_dir", cfg.Paths.VaultDir},
				{"paths.inbox_dir", cfg.Paths.InboxDir},
				{"paths.data_dir", cfg.Paths.DataDir},
				{"whisper.model", cfg.Whisper.Model},
				{"groq.api_key", apiKey},
				{"groq.model", cfg.Groq.Model},
				{"groq.rpm_limit", fmt.Sprint(cfg.Groq.RPMLimit)},
				{"groq.tpm_limit", fmt.Sprint(cfg.Groq.TPMLimit)},
				{"groq.rpd_limit", fmt.Sprint(cfg.Groq.RPDLimit)},
				{"groq.chunk_token_limit", fmt.Sprint(cfg.Groq.ChunkTokenLimit)},
				{"workflow.poll_interval", fmt.Sprint(cfg.Workflow.PollInterval)},
				{"workflow.error_retry_interval", fmt.Sprint(cfg.Workflow.ErrorRetryInterval)},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(out, renderTable(out, []string{"Setting", "Value"}, rows))
			return nil
		},
	}
}
