package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/search-server/cmd/searchctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
