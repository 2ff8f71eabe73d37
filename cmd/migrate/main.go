package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/blueledger/blueledger/migrations"
	"github.com/blueledger/blueledger/pkg/config"
	"github.com/blueledger/blueledger/pkg/logger"
	"github.com/blueledger/blueledger/pkg/migrator"
)

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|redo|validate")
	flag.Parse()

	// validate needs neither config nor a database
	if *cmd == "validate" {
		if err := migrator.Validate(migrations.FS); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	args := flag.Args()
	os.Args = os.Args[:1] // config.Load parses flags of its own
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg).With("cmd", *cmd)

	switch *cmd {
	case "up", "down", "status", "version", "redo":
	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}

	if err := migrator.Run(context.Background(), cfg.DatabaseURL, migrations.FS, *cmd, args...); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migration finished")
}
