package main

import (
	"flag"
	"log"
	"os"

	"FinWatch/internal/di"
	"FinWatch/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s store=%s sink=%s keys=%d", cfg.Environment, cfg.Store.Type, cfg.Sink.Backend, len(cfg.AlphaVantage.APIKeys))

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	runErr := app.Run()
	cleanup()
	if runErr != nil {
		log.Printf("app error: %v", runErr)
		os.Exit(1)
	}
}
