package promptstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresLogPrefix = "promptstore:postgres"

// PostgresStore serves prompts from the prompts table. Rows are maintained by
// the migrate and seed-prompts commands.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore over the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ListPrompts returns all prompts ordered by id.
func (s *PostgresStore) ListPrompts(ctx context.Context) ([]Prompt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, template FROM prompts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to list prompts: %w", postgresLogPrefix, err)
	}
	defer rows.Close()

	var prompts []Prompt
	for rows.Next() {
		var p Prompt
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Template); err != nil {
			return nil, fmt.Errorf("%s - failed to scan prompt: %w", postgresLogPrefix, err)
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - prompt rows: %w", postgresLogPrefix, err)
	}
	return prompts, nil
}

// GetPrompt returns the prompt with the given id, or ErrNotFound.
func (s *PostgresStore) GetPrompt(ctx context.Context, id string) (*Prompt, error) {
	var p Prompt
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, template FROM prompts WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Template)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s - failed to get prompt %s: %w", postgresLogPrefix, id, err)
	}
	return &p, nil
}

// Upsert inserts or updates a prompt row. Used by seeding.
func (s *PostgresStore) Upsert(ctx context.Context, p Prompt) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO prompts (id, name, description, template)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, description = EXCLUDED.description, template = EXCLUDED.template`,
		p.ID, p.Name, p.Description, p.Template)
	if err != nil {
		return fmt.Errorf("%s - failed to upsert prompt %s: %w", postgresLogPrefix, p.ID, err)
	}
	return nil
}
