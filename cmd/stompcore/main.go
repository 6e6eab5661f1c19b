package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/KevinKickass/OpenStompCore/internal/config"
	"github.com/KevinKickass/OpenStompCore/internal/system"
	"github.com/KevinKickass/OpenStompCore/internal/transport"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "path to the runtime configuration")
	listPorts := pflag.Bool("list-ports", false, "print the MIDI ports of this host and exit")
	pflag.Parse()

	if *listPorts {
		printPorts()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Config loaded successfully", zap.String("path", *configPath))

	lifecycle, err := system.NewLifecycleManager(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load setup", zap.Error(err))
	}

	if err := lifecycle.Start(); err != nil {
		logger.Fatal("Failed to start system", zap.Error(err))
	}

	logger.Info("OpenStompCore started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
	case <-lifecycle.Done():
		// shut down through the REST API
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := lifecycle.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	transport.Close()
	logger.Info("OpenStompCore stopped successfully")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func printPorts() {
	defer transport.Close()

	fmt.Println("MIDI outputs:")
	for _, name := range transport.ListOutPorts() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("MIDI inputs:")
	for _, name := range transport.ListInPorts() {
		fmt.Printf("  %s\n", name)
	}
}
