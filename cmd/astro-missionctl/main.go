package main

import (
	"fmt"
	"os"

	"github.com/astrolink-io/astrolink/cmd/astro-missionctl/app"
)

func main() {
	if err := app.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
