package cmd

import (
	"fmt"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
	"github.com/spf13/cobra"
)

// migrate creates or updates the reserve, account, token owner,
// liquidation event and property tables
var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Aliases: []string{"setdb"},
	Short:   "migrate database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd, "migrate")

		database := provideDatabase()
		defer database.Close()

		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		logger.FromContext(ctx).Infoln("database migrated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
