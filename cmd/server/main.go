package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/config"
	"github.com/GriffinCanCode/durationtrace/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override environment variables
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "Server port")
	flag.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "Server host")
	flag.StringVar(&cfg.Server.GRPCPort, "grpc-port", cfg.Server.GRPCPort, "gRPC health port (empty disables)")
	flag.StringVar(&cfg.Relay.RoutesFile, "routes", cfg.Relay.RoutesFile, "Relay route file (YAML)")
	flag.StringVar(&cfg.Duration.HeaderName, "header", cfg.Duration.HeaderName, "Duration header name")
	flag.IntVar(&cfg.Duration.MaxLength, "max-length", cfg.Duration.MaxLength, "Duration header size limit in bytes")
	flag.StringVar(&cfg.Duration.Variant, "variant", cfg.Duration.Variant, "Header dialect: duration or trace")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "Development mode (colored logs)")
	flag.Parse()

	if cfg.Logging.Development && cfg.Logging.Level == "info" {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}
