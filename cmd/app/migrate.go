package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vietanh2810/coffeeshop-api/internal/repository/dao"
)

func migrateCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			gdb, err := openDB(conf)
			if err != nil {
				return err
			}
			defer closeDB(gdb)

			if reset {
				zap.L().Warn("dropping all tables")
				if err = dao.DropTables(gdb); err != nil {
					return fmt.Errorf("dao.DropTables -> %w", err)
				}
			}

			if err = dao.InitTables(gdb); err != nil {
				return fmt.Errorf("dao.InitTables -> %w", err)
			}

			zap.L().Info("database migrated")

			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop every table before migrating")

	return cmd
}
