package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tusharsharma89566/Edu-Learn/pkg"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := pkg.Migrate(db); err != nil {
			return err
		}
		logger.Info("Database migrated", "driver", cfg.Database.Driver)
		return nil
	},
}
