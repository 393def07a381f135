package history

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eshu30/AI-Stockbot/internal/model/chat"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore keeps history documents in a shared Postgres database,
// one row per document path. Use it when several instances must see the
// same histories.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL, applies pending schema
// migrations and returns a ready store.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(databaseURL); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func runMigrations(databaseURL string) error {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Printf("[history] migrations applied: version=%d dirty=%v", version, dirty)
	return nil
}

// Load reads the document stored under path.
func (s *PostgresStore) Load(ctx context.Context, path string) (Document, bool, error) {
	var (
		raw         []byte
		lastUpdated time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT messages, last_updated FROM history_documents WHERE doc_path = $1`,
		path,
	).Scan(&raw, &lastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("load history document: %w", err)
	}

	var messages []chat.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return Document{}, false, fmt.Errorf("decode history document: %w", err)
	}
	return Document{Messages: messages, LastUpdated: lastUpdated}, true, nil
}

// Save upserts the document under path in a single statement.
func (s *PostgresStore) Save(ctx context.Context, path string, doc Document) error {
	enc, err := json.Marshal(doc.Messages)
	if err != nil {
		return fmt.Errorf("encode history document: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO history_documents (doc_path, messages, last_updated)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (doc_path)
		 DO UPDATE SET messages = EXCLUDED.messages, last_updated = EXCLUDED.last_updated`,
		path, enc, doc.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("save history document: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
