package cmd

import (
	"fmt"

	"github.com/daromanx/qa-tracker/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and seed roles, domains and the admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(env)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		if err := prepareDatabase(cmd, db); err != nil {
			return err
		}
		log.Info("database ready", zap.String("driver", env.DBDriver))
		return nil
	},
}

func prepareDatabase(cmd *cobra.Command, db *gorm.DB) error {
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	admin := database.AdminSeed{
		Email:    env.SeedAdminEmail,
		Nick:     env.SeedAdminNick,
		Password: env.SeedAdminPassword,
	}
	if err := database.Seed(cmd.Context(), db, admin); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
