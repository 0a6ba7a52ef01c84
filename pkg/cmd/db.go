package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arqdiario/arqvault/pkg/configs"
	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/storage/db"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:   "ls",
		Short: "list all registered database types",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")
			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+dbType)
			}
		},
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "create or update the archive schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			client, err := db.New(context.Background())
			if err != nil {
				return err
			}

			if err := model.AutoMigrate(client.GetDB()); err != nil {
				return fmt.Errorf("migrate schema: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "schema migrated")

			return nil
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}
