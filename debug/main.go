package main

import (
	"github.com/c4rrotJuice/web-unlocker-tool/internal/config"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/server"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadConfig()
	cfg.LogLevel = "debug"
	config.ConfigureLogging(cfg)

	if err := server.Start(cfg); err != nil {
		logrus.Fatal(err)
	}
}
