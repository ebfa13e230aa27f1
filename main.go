package main

import (
	"github.com/riotx/riotx/cmd"
	"github.com/riotx/riotx/internal/logging"
	"github.com/riotx/riotx/internal/status"
)

func main() {
	defer logging.RecoverPanic("main", func() {
		status.Error("Application terminated due to unhandled panic")
	})

	cmd.Execute()
}
