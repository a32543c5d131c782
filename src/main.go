package main

import (
	"log"

	"github.com/contre95/soulsearch/src/cmd"
	"github.com/contre95/soulsearch/src/features/config"
)

func main() {
	// Secrets such as SLSKD_API_KEY may live in a .env file
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("failed to load environment: %v", err)
	}
	cmd.Execute()
}
