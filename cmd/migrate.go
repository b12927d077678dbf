package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move articles from the legacy local snapshot into the document store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Backend == "local" {
			return fmt.Errorf("migrate needs the sqlite backend, got %q", cfg.Backend)
		}
		log, err := newLogger(cfg.Env)
		if err != nil {
			return err
		}
		defer log.Sync()

		a, err := newApp(cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if _, err := a.posts.Load(ctx); err != nil {
			return err
		}
		report, err := a.migrator.MigrateLegacy(ctx)
		if err != nil {
			log.Error("legacy migration failed", zap.Int("migrated", report.Migrated), zap.Error(err))
			return err
		}
		if notice := report.Notice(); notice != "" {
			fmt.Fprintln(cmd.OutOrStdout(), notice)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to migrate: %s\n", report.Reason)
		return nil
	},
}
