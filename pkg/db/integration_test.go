//go:build integration

package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sitequery/mcp-gateway/pkg/promptstore"
)

const integrationTestPrefix = "db:integration_test"

// Integration tests use DATABASE_URL (e.g. .../gateway_test on a local Postgres).

func TestIntegration_MigrateSeedAndRead(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, url)
	if err != nil {
		t.Fatalf("%s - failed to connect: %v", integrationTestPrefix, err)
	}
	defer pool.Close()

	files, err := LoadMigrationFiles("../../migrations")
	if err != nil {
		t.Fatalf("%s - failed to load migrations: %v", integrationTestPrefix, err)
	}
	if err := RunMigrations(ctx, pool, files); err != nil {
		t.Fatalf("%s - failed to run migrations: %v", integrationTestPrefix, err)
	}

	applied, err := MigrationStatus(ctx, pool)
	if err != nil {
		t.Fatalf("%s - status check failed: %v", integrationTestPrefix, err)
	}
	if !applied {
		t.Fatalf("%s - prompts table missing after migration", integrationTestPrefix)
	}

	promptsFile := filepath.Join(t.TempDir(), "prompts.yaml")
	content := `
prompts:
  - id: it_summarize
    name: Summarize
    description: Integration test prompt.
    template: "Summarize: {results}"
`
	if err := os.WriteFile(promptsFile, []byte(content), 0o600); err != nil {
		t.Fatalf("%s - failed to write prompts file: %v", integrationTestPrefix, err)
	}

	if err := SeedPrompts(ctx, pool, promptsFile); err != nil {
		t.Fatalf("%s - seed failed: %v", integrationTestPrefix, err)
	}

	store := promptstore.NewPostgresStore(pool)
	p, err := store.GetPrompt(ctx, "it_summarize")
	if err != nil {
		t.Fatalf("%s - get failed: %v", integrationTestPrefix, err)
	}
	if p.Name != "Summarize" {
		t.Errorf("%s - prompt name = %q", integrationTestPrefix, p.Name)
	}

	if _, err := store.GetPrompt(ctx, "absent_prompt_id"); !errors.Is(err, promptstore.ErrNotFound) {
		t.Errorf("%s - expected ErrNotFound, got %v", integrationTestPrefix, err)
	}
}
