package main

import (
	"os"

	"github.com/DoyleJ11/rps-bot/cmd/server/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
