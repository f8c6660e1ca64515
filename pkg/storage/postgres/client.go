// Package postgres provides a PostgreSQL + pgvector implementation of
// storage.VectorStore.
//
// Each vector space is a vector(n) column named vec_<space>, the payload is
// JSONB, and similarity search uses the pgvector cosine distance operator.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
	"github.com/oceanbase/decaymem-go/pkg/storage"
)

// Client is a PostgreSQL + pgvector client.
type Client struct {
	db             *sql.DB
	collectionName string

	mu     sync.RWMutex
	spaces map[string]storage.SpaceConfig
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	CollectionName string
	SSLMode        string

	// DSN overrides the individual connection fields when set.
	DSN string
}

// NewClient creates a new PostgreSQL client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.CollectionName == "" {
		cfg.CollectionName = "memories"
	}
	if !storage.ValidKey(cfg.CollectionName) {
		return nil, fmt.Errorf("NewPostgresClient: invalid collection name %q", cfg.CollectionName)
	}

	dsn := cfg.DSN
	if dsn == "" {
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	return &Client{
		db:             db,
		collectionName: cfg.CollectionName,
	}, nil
}

// EnsureCollection enables pgvector and creates the table with one vector
// column per space. Missing space columns are added to an existing table.
func (c *Client) EnsureCollection(ctx context.Context, spaces map[string]storage.SpaceConfig) error {
	if err := storage.ValidateSpaces(spaces); err != nil {
		return fmt.Errorf("EnsureCollection: %w", err)
	}

	// Enable pgvector extension
	if _, err := c.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("EnsureCollection: create extension: %w", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(64) PRIMARY KEY,
			payload JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, c.collectionName)
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("EnsureCollection: create table: %w", err)
	}

	for _, name := range storage.SortedSpaceNames(spaces) {
		alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s vector(%d)`,
			c.collectionName, columnName(name), spaces[name].Dimension)
		if _, err := c.db.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("EnsureCollection: add column %s: %w", name, err)
		}
	}

	c.mu.Lock()
	c.spaces = make(map[string]storage.SpaceConfig, len(spaces))
	for name, sc := range spaces {
		c.spaces[name] = sc
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) spaceConfig() map[string]storage.SpaceConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.spaces
}

// Upsert writes all points in one transaction.
func (c *Client) Upsert(ctx context.Context, points []*storage.Point) error {
	if len(points) == 0 {
		return nil
	}
	spaces := c.spaceConfig()
	if spaces == nil {
		return fmt.Errorf("Upsert: collection not initialized")
	}
	names := storage.SortedSpaceNames(spaces)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertQuery(c.collectionName, names))
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range points {
		if err := storage.CheckPoint(p, spaces); err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
		payloadJSON, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
		args := []interface{}{p.ID, string(payloadJSON)}
		for _, name := range names {
			// Convert vector to PostgreSQL vector format: "[0.1,0.2,0.3,...]"
			args = append(args, vectorToString(p.Vectors[name]))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// SetPayload replaces the payload of a point.
func (c *Client) SetPayload(ctx context.Context, id string, payload map[string]interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("SetPayload: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET payload = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, c.collectionName)
	if _, err := c.db.ExecContext(ctx, query, string(payloadJSON), id); err != nil {
		return fmt.Errorf("SetPayload: %w", err)
	}
	return nil
}

// Search performs vector similarity search using pgvector.
//
// Uses pgvector's <=> operator for cosine distance; the score is 1 - distance.
func (c *Client) Search(ctx context.Context, vector []float64, opts *storage.SearchOptions) ([]*storage.ScoredPoint, error) {
	sc, ok := c.spaceConfig()[opts.Space]
	if !ok {
		return nil, fmt.Errorf("Search: %w: %s", storage.ErrUnknownSpace, opts.Space)
	}
	if len(vector) != sc.Dimension {
		return nil, fmt.Errorf("Search: query has %d values, expected %d", len(vector), sc.Dimension)
	}
	if err := opts.Filter.Validate(); err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}

	col := columnName(opts.Space)
	whereClause, args := buildWhereClauseWithOffset(opts.Filter, 2)
	query := fmt.Sprintf(`
		SELECT id, payload, 1 - (%s <=> $1) AS score
		FROM %s
		%s
		ORDER BY %s <=> $1
		LIMIT %s
	`, col, c.collectionName, whereClause, col, limitOrAll(opts.Limit))

	args = append([]interface{}{vectorToString(vector)}, args...)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []*storage.ScoredPoint
	for rows.Next() {
		var id string
		var payloadJSON []byte
		var score sql.NullFloat64
		if err := rows.Scan(&id, &payloadJSON, &score); err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		payload, err := decodePayload(payloadJSON)
		if err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		hits = append(hits, &storage.ScoredPoint{ID: id, Score: score.Float64, Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	return hits, nil
}

// Scroll returns up to limit points ordered by id.
func (c *Client) Scroll(ctx context.Context, limit int) ([]*storage.Record, error) {
	query := fmt.Sprintf(`SELECT id, payload FROM %s ORDER BY id LIMIT %s`, c.collectionName, limitOrAll(limit))

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("Scroll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*storage.Record
	for rows.Next() {
		var id string
		var payloadJSON []byte
		if err := rows.Scan(&id, &payloadJSON); err != nil {
			return nil, fmt.Errorf("Scroll: %w", err)
		}
		payload, err := decodePayload(payloadJSON)
		if err != nil {
			return nil, fmt.Errorf("Scroll: %w", err)
		}
		records = append(records, &storage.Record{ID: id, Payload: payload})
	}
	return records, rows.Err()
}

// Delete removes points by id.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return storage.ErrEmptyIDs
	}

	placeholders, args := inClause(ids, 1)
	query := fmt.Sprintf(`DELETE FROM %s WHERE id IN (%s)`, c.collectionName, placeholders)
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// Count returns the number of points.
func (c *Client) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, c.collectionName)
	var count int
	if err := c.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}
