package main

import (
	"fmt"
	"os"

	"murshid/common/environment"
	"murshid/common/version"
	"murshid/internal/app"
	"murshid/internal/config"
	"murshid/internal/observability"
)

func main() {
	fmt.Println(version.Banner())

	observability.Setup(
		environment.StringOr("LOG_LEVEL", "info"),
		environment.StringOr("LOG_FORMAT", "json"),
	)

	cfgPath := environment.StringOr("CONFIG_PATH", "./murshid.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	murshid, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize Murshid: %v\n", err)
		os.Exit(1)
	}
	defer murshid.Stop()

	if err := murshid.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running Murshid: %v\n", err)
		os.Exit(1)
	}
}
