package cmd

import (
	"github.com/c4rrotJuice/web-unlocker-tool/internal/config"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
}

func Migrate() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the documents, checkpoints and citations tables",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.LoadConfig()
			config.ConfigureLogging(cfg)

			db := config.GetDb(cfg)
			if err := model.Migrate(db); err != nil {
				logrus.Fatalf("migration failed: %v", err)
			}
			logrus.Infof("migrated %s database", cfg.DBDriver)
		},
	}

	return command
}
