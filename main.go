package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"regenwasi/internal/di"
	"regenwasi/internal/structures"
)

func main() {
	// .env is optional; real deployments pass environment directly.
	_ = godotenv.Load()

	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the configuration file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "force debug log level")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		log.Fatalf("failed to start: %s", err)
	}
}
