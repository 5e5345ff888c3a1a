package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitequery/mcp-gateway/pkg/promptstore"
)

const seedLogPrefix = "db:seed_prompts"

// SeedPrompts upserts all prompts from the YAML file into the prompts table.
// Existing rows with matching ids are overwritten; rows absent from the file
// are left alone.
func SeedPrompts(ctx context.Context, pool *pgxpool.Pool, promptsFile string) error {
	yamlStore, err := promptstore.LoadYAMLStore(promptsFile)
	if err != nil {
		return fmt.Errorf("%s - failed to load %s: %w", seedLogPrefix, promptsFile, err)
	}

	prompts, err := yamlStore.ListPrompts(ctx)
	if err != nil {
		return fmt.Errorf("%s - failed to list prompts: %w", seedLogPrefix, err)
	}

	pgStore := promptstore.NewPostgresStore(pool)
	for _, p := range prompts {
		if err := pgStore.Upsert(ctx, p); err != nil {
			return err
		}
	}

	slog.Info(fmt.Sprintf("%s - Seeded %d prompts from %s", seedLogPrefix, len(prompts), promptsFile))
	return nil
}
