package main

import (
	"os"

	"github.com/binhbb2204/bookhub/cli"
	"github.com/binhbb2204/bookhub/pkg/config"
)

func main() {
	config.LoadEnv()
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
