// Package main is the entrypoint for the mcp-gateway (binary name "mcp-gateway" in Docker).
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/sitequery/mcp-gateway/internal/config"
	"github.com/sitequery/mcp-gateway/internal/server"
	"github.com/sitequery/mcp-gateway/pkg/db"
)

const usage = `Usage: mcp-gateway [command]
       mcp-gateway serve               Start the gateway (COMMS, HTTP, streaming).
       mcp-gateway migrate up          Run database migrations.
       mcp-gateway migrate status      Show migration status.
       mcp-gateway seed-prompts [file] Seed the prompts table from a YAML file (default: PROMPTS_FILE).

Commands:
  serve               (default) Start the gateway.
  migrate up          Run database migrations only.
  migrate status      Show current migration status.
  seed-prompts [file] Upsert prompts from a YAML file into the database.

Environment: COMMS_URL (default nats://127.0.0.1:4222), HTTP_PORT (default 8000),
PROMPTS_FILE (default prompts.yaml), DATABASE_URL, MIGRATION_PATH. See README.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("mcp-gateway migrate: require subcommand (up, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("mcp-gateway migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("mcp-gateway migrate status: %v", err)
			}
		default:
			log.Fatalf("mcp-gateway migrate: unknown subcommand %q (use up, status)", sub)
		}
		return
	case "seed-prompts":
		promptsFile := ""
		if len(args) > 1 {
			promptsFile = args[1]
		}
		if err := runSeedPrompts(promptsFile); err != nil {
			log.Fatalf("mcp-gateway seed-prompts: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("mcp-gateway: %v", err)
	}
}

func runMigrateUp() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrated, err := db.MigrationStatus(ctx, pool)
	if err != nil {
		return err
	}
	if migrated {
		fmt.Println("Schema is up to date.")
	} else {
		fmt.Println("Schema is missing; run: mcp-gateway migrate up")
	}
	return nil
}

func runSeedPrompts(promptsFileOverride string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	promptsFile := promptsFileOverride
	if promptsFile == "" {
		promptsFile = cfg.PromptsFile
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.SeedPrompts(ctx, pool, promptsFile); err != nil {
		return fmt.Errorf("seed prompts: %w", err)
	}
	return nil
}
