package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"

	"geocoding/apis"
	"geocoding/cli"
)

func main() {
	ctx := context.Background()

	cmd, err := cli.New(apis.Options{})
	if err != nil {
		log.Fatal("new cli", "err", err)
	}

	if err = cli.Execute(ctx, cmd); err != nil {
		log.Error("exec", "err", err)
		os.Exit(1)
	}
}
