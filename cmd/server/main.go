package main

import (
	"github.com/castmap/castmap/internal/server"
	"github.com/castmap/castmap/internal/util"
	"github.com/castmap/castmap/pkg/logger"
	"github.com/castmap/castmap/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleBackend(console.ConsoleBackendParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
