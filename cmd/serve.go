package cmd

import (
	"github.com/c4rrotJuice/web-unlocker-tool/internal/config"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the document server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()
		config.ConfigureLogging(cfg)
		server.NewServer(cfg).Start()
	},
}
