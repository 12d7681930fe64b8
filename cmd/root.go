package cmd

import (
	"fmt"
	"os"

	"github.com/daromanx/qa-tracker/config"
	"github.com/daromanx/qa-tracker/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	env *config.Env
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "qa-tracker",
	Short: "qa-tracker authentication service",
	Long: `qa-tracker runs the account and login API: registration with email
activation, password plus emailed one-time code login with lockouts, and
password reset links.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		env, err = config.LoadEnv()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log, err = logger.New(env.AppEnv)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute runs the root command. Without a subcommand it serves the API.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
