package main

import (
	"github.com/plotweave/backend/internal/server"
	"github.com/plotweave/backend/internal/util"
	"github.com/plotweave/backend/pkg/logger"
	"github.com/plotweave/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
