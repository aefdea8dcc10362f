package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/astrolink-io/astrolink/cmd/astro-sequencer/app"
)

func main() {
	app.NewApp().Run()
}
