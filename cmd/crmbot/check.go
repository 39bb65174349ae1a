package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Read one project record to verify datastore access",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			records, err := store.GetAll(cmd.Context(), "", checkTable(cfg.Domain), 1)
			if err != nil {
				return fmt.Errorf("datastore check failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✅ datastore reachable")
			if len(records) == 0 {
				fmt.Fprintln(out, "(table is empty)")
				return nil
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(records[0])
		},
	}
}

// checkTable prefers the projects table and falls back to the first one.
func checkTable(d *config.Domain) string {
	if _, ok := d.Table("projects"); ok {
		return "projects"
	}
	if len(d.Tables) > 0 {
		return d.Tables[0].Key
	}
	return ""
}
