package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/brightfund/donation-gateway/pkg/app"
	"github.com/brightfund/donation-gateway/pkg/app/api"
	"github.com/brightfund/donation-gateway/pkg/config"
)

var configPath = flag.String("config", "config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var runner app.Runner = api.NewServer(cfg)
	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Server exited with error: %v\n", err)
		os.Exit(1)
	}
}
