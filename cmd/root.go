package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tasublog/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tasublog",
	Short: "A small markdown blog with an admin panel",
	// Running the bare binary serves the blog.
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == config.DevEnv {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
