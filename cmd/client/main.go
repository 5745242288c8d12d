package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/paircraft/paircraft/internal/client/api"
	"github.com/paircraft/paircraft/internal/client/cli"
	"github.com/paircraft/paircraft/internal/client/iocli"
	"github.com/paircraft/paircraft/internal/client/storage/boltdb"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8000", "Server URL")
	wsURL := flag.String("ws", "ws://localhost:8000", "WebSocket URL")
	dbPath := flag.String("db", "paircraft-client.db", "Path to local database")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	command := args[0]

	ctx := context.Background()

	// Открываем BoltDB storage с настройками
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Создаем API клиент
	apiClient := api.NewClient(*serverURL)

	c := cli.New(apiClient, boltStorage, iocli.NewStdio(), *wsURL, slog.Default())
	c.Run(ctx, command, args[1:])
}

func printVersion() {
	fmt.Printf("PairCraft Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
