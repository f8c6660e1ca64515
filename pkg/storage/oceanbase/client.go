// Package oceanbase provides an OceanBase implementation of storage.VectorStore.
//
// OceanBase speaks the MySQL protocol. Each vector space is a VECTOR(n)
// column named vec_<space>, the payload is a JSON column, and similarity
// search uses cosine_distance.
package oceanbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/oceanbase/decaymem-go/pkg/storage"
)

// Client is an OceanBase client.
type Client struct {
	db             *sql.DB
	config         *Config
	collectionName string

	mu     sync.RWMutex
	spaces map[string]storage.SpaceConfig
}

// Config contains OceanBase configuration.
type Config struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	CollectionName string

	// VectorIndex adds an HNSW cosine index on every vector column when the
	// table is created.
	VectorIndex bool
}

// NewClient creates a new OceanBase client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.CollectionName == "" {
		cfg.CollectionName = "memories"
	}
	if !storage.ValidKey(cfg.CollectionName) {
		return nil, fmt.Errorf("NewOceanBaseClient: invalid collection name %q", cfg.CollectionName)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
	}

	return &Client{
		db:             db,
		config:         cfg,
		collectionName: cfg.CollectionName,
	}, nil
}

// EnsureCollection creates the table with one VECTOR column per space and
// adds columns for spaces an existing table lacks.
func (c *Client) EnsureCollection(ctx context.Context, spaces map[string]storage.SpaceConfig) error {
	if err := storage.ValidateSpaces(spaces); err != nil {
		return fmt.Errorf("EnsureCollection: %w", err)
	}
	names := storage.SortedSpaceNames(spaces)

	defs := []string{"id VARCHAR(64) PRIMARY KEY", "payload JSON"}
	for _, name := range names {
		defs = append(defs, fmt.Sprintf("%s VECTOR(%d)", columnName(name), spaces[name].Dimension))
	}
	defs = append(defs, "created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP", "updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
	if c.config.VectorIndex {
		for _, name := range names {
			defs = append(defs, fmt.Sprintf("VECTOR INDEX idx_%s_%s(%s) WITH (distance=cosine, type=hnsw, lib=vsag)",
				c.collectionName, name, columnName(name)))
		}
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", c.collectionName, strings.Join(defs, ",\n\t"))
	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("EnsureCollection: %w", err)
	}

	existing, err := c.existingColumns(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if existing[columnName(name)] {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s VECTOR(%d)", c.collectionName, columnName(name), spaces[name].Dimension)
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

func (c *Client) existingColumns(ctx context.Context) (map[string]bool, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
	`, c.collectionName)
	if err != nil {
		return nil, fmt.Errorf("existingColumns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("existingColumns: %w", err)
		}
		cols[strings.ToLower(name)] = true
	}
	return cols, rows.Err()
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

	query := fmt.Sprintf("UPDATE %s SET payload = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", c.collectionName)
	if _, err := c.db.ExecContext(ctx, query, string(payloadJSON), id); err != nil {
		return fmt.Errorf("SetPayload: %w", err)
	}
	return nil
}

// Search performs vector similarity search with cosine_distance.
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

	whereClause, filterArgs := buildWhereClause(opts.Filter)
	query := fmt.Sprintf(`
		SELECT id, payload, cosine_distance(%s, ?) AS distance
		FROM %s
		%s
		ORDER BY distance ASC
	`, columnName(opts.Space), c.collectionName, whereClause)
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	args := append([]interface{}{vectorToString(vector)}, filterArgs...)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []*storage.ScoredPoint
	for rows.Next() {
		var id string
		var payloadJSON []byte
		var distance sql.NullFloat64
		if err := rows.Scan(&id, &payloadJSON, &distance); err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		payload, err := decodePayload(payloadJSON)
		if err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		score := 0.0
		if distance.Valid {
			score = 1 - distance.Float64
		}
		hits = append(hits, &storage.ScoredPoint{ID: id, Score: score, Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	return hits, nil
}

// Scroll returns up to limit points ordered by id.
func (c *Client) Scroll(ctx context.Context, limit int) ([]*storage.Record, error) {
	query := fmt.Sprintf("SELECT id, payload FROM %s ORDER BY id", c.collectionName)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

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

	placeholders, args := inClause(ids)
	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", c.collectionName, placeholders)
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

// Count returns the number of points.
func (c *Client) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.collectionName)
	var count int
	if err := c.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
