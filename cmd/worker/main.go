package main

import (
	"os"

	"user-enrichment/internal/app"
)

func main() {
	if err := app.RunWorker(); err != nil {
		os.Exit(1)
	}
}
