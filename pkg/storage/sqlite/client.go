// Package sqlite provides SQLite implementation for vector storage.
//
// SQLite is a lightweight, file-based database suitable for local development
// and small-scale applications. The named vectors of a point are stored as
// one JSON object in a TEXT field, and similarity search uses in-memory
// cosine similarity calculation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oceanbase/decaymem-go/pkg/storage"
)

// Client implements VectorStore using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// collectionName is the name of the table storing points.
	collectionName string

	mu     sync.RWMutex
	spaces map[string]storage.SpaceConfig
}

// Config contains configuration for creating a SQLite VectorStore.
type Config struct {
	// DBPath is the path to the SQLite database file. ":memory:" keeps the
	// database in process memory.
	DBPath string

	// CollectionName is the name of the table to use. Default: "memories"
	CollectionName string
}

// NewClient creates a new SQLite VectorStore client.
//
// Parameters:
//   - cfg: Configuration containing database path and table name
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	if cfg.CollectionName == "" {
		cfg.CollectionName = "memories"
	}
	if !storage.ValidKey(cfg.CollectionName) {
		return nil, fmt.Errorf("NewSQLiteClient: invalid collection name %q", cfg.CollectionName)
	}

	dsn := cfg.DBPath
	if dsn != ":memory:" {
		// Create parent directory if it doesn't exist
		dbDir := filepath.Dir(cfg.DBPath)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
			}
		}
		dsn += "?_foreign_keys=1&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}
	if cfg.DBPath == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	return &Client{
		db:             db,
		collectionName: cfg.CollectionName,
	}, nil
}

// EnsureCollection creates the points table and records the space layout.
// A space that already exists with another dimension is an error.
func (c *Client) EnsureCollection(ctx context.Context, spaces map[string]storage.SpaceConfig) error {
	if err := storage.ValidateSpaces(spaces); err != nil {
		return fmt.Errorf("EnsureCollection: %w", err)
	}

	if err := c.initTables(ctx); err != nil {
		return err
	}

	existing, err := c.loadSpaces(ctx)
	if err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("EnsureCollection: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := fmt.Sprintf(`INSERT INTO %s_spaces (name, dimension) VALUES (?, ?)`, c.collectionName)
	for _, name := range storage.SortedSpaceNames(spaces) {
		sc := spaces[name]
		if dim, ok := existing[name]; ok {
			if dim != sc.Dimension {
				return fmt.Errorf("EnsureCollection: space %q exists with dimension %d", name, dim)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, insert, name, sc.Dimension); err != nil {
			return fmt.Errorf("EnsureCollection: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("EnsureCollection: %w", err)
	}

	c.mu.Lock()
	c.spaces = make(map[string]storage.SpaceConfig, len(spaces))
	for name, sc := range spaces {
		c.spaces[name] = sc
	}
	c.mu.Unlock()
	return nil
}

// initTables initializes the database table structure.
func (c *Client) initTables(ctx context.Context) error {
	queries := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				vectors TEXT NOT NULL,
				payload TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`, c.collectionName),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s_spaces (
				name TEXT PRIMARY KEY,
				dimension INTEGER NOT NULL
			)
		`, c.collectionName),
	}

	for _, query := range queries {
		if _, err := c.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("initTables: %w", err)
		}
	}
	return nil
}

func (c *Client) loadSpaces(ctx context.Context) (map[string]int, error) {
	query := fmt.Sprintf(`SELECT name, dimension FROM %s_spaces`, c.collectionName)
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("loadSpaces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	spaces := make(map[string]int)
	for rows.Next() {
		var name string
		var dim int
		if err := rows.Scan(&name, &dim); err != nil {
			return nil, fmt.Errorf("loadSpaces: %w", err)
		}
		spaces[name] = dim
	}
	return spaces, rows.Err()
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

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, vectors, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			vectors = excluded.vectors,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, c.collectionName)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range points {
		if err := storage.CheckPoint(p, spaces); err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
		vectorsJSON, err := json.Marshal(p.Vectors)
		if err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
		payloadJSON, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, string(vectorsJSON), string(payloadJSON)); err != nil {
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

	query := fmt.Sprintf(`UPDATE %s SET payload = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, c.collectionName)
	if _, err := c.db.ExecContext(ctx, query, string(payloadJSON), id); err != nil {
		return fmt.Errorf("SetPayload: %w", err)
	}
	return nil
}

// Search performs vector similarity search using cosine similarity.
//
// SQLite does not have native vector operations, so similarity is calculated
// in memory after loading all records that pass the filter.
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

	whereClause, args := buildWhereClause(opts.Filter)
	query := fmt.Sprintf(`SELECT id, vectors, payload FROM %s %s ORDER BY id`, c.collectionName, whereClause)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []*storage.ScoredPoint
	for rows.Next() {
		var id, vectorsJSON, payloadJSON string
		if err := rows.Scan(&id, &vectorsJSON, &payloadJSON); err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		var vectors map[string][]float64
		if err := json.Unmarshal([]byte(vectorsJSON), &vectors); err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		payload, err := decodePayload(payloadJSON)
		if err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		// The SQL clause only narrows string conditions.
		if !opts.Filter.Matches(payload) {
			continue
		}
		hits = append(hits, &storage.ScoredPoint{
			ID:      id,
			Score:   storage.CosineSimilarity(vector, vectors[opts.Space]),
			Payload: payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}

	return storage.SortByScore(hits, opts.Limit), nil
}

// Scroll returns up to limit points ordered by id.
func (c *Client) Scroll(ctx context.Context, limit int) ([]*storage.Record, error) {
	query := fmt.Sprintf(`SELECT id, payload FROM %s ORDER BY id`, c.collectionName)
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Scroll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*storage.Record
	for rows.Next() {
		var id, payloadJSON string
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

// Delete removes points by id in one statement.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return storage.ErrEmptyIDs
	}

	placeholders, args := inClause(ids)
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
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}
