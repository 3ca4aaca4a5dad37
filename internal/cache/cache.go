package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/torfstack/jumble/internal/logging"
	"github.com/torfstack/jumble/internal/util"
	_ "modernc.org/sqlite"
)

var (
	dbFilePath = filepath.Join(util.JumbleConfigDir, "jumble.sqlite")
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Cache stores downloaded file contents keyed by their remote blob sha, so
// repeated runs against an unchanged tree skip the download entirely.
type Cache struct {
	db *sql.DB
}

func New(ctx context.Context) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbFilePath), 0755); err != nil {
		return nil, fmt.Errorf("could not create cache directory: %w", err)
	}
	sqlDb, err := sql.Open("sqlite", dbFilePath)
	if err != nil {
		return nil, fmt.Errorf("could not open cache database: %w", err)
	}
	c := &Cache{sqlDb}
	err = c.runMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}
	return c, nil
}

func (c *Cache) runMigrations(ctx context.Context) error {
	err := goose.SetDialect("sqlite")
	if err != nil {
		return fmt.Errorf("could not set dialect 'sqlite': %w", err)
	}
	goose.SetLogger(logging.JumbleLoggerGoose{})
	goose.SetBaseFS(embedMigrations)

	if err = goose.UpContext(ctx, c.db, "migrations"); err != nil {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached content for the given sha, or (nil, false) on a
// miss.
func (c *Cache) Get(ctx context.Context, sha string) ([]byte, bool, error) {
	var content []byte
	err := c.db.QueryRowContext(ctx, "SELECT content FROM blobs WHERE sha = ?", sha).Scan(&content)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("could not query cached blob '%s': %w", sha, err)
	}
	return content, true, nil
}

func (c *Cache) Put(ctx context.Context, sha string, content []byte) error {
	_, err := c.db.ExecContext(
		ctx,
		"INSERT INTO blobs (sha, content, fetched_at) VALUES (?, ?, ?) ON CONFLICT (sha) DO UPDATE SET content = excluded.content, fetched_at = excluded.fetched_at",
		sha, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("could not store blob '%s': %w", sha, err)
	}
	return nil
}

func (c *Cache) Purge(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM blobs")
	if err != nil {
		return fmt.Errorf("could not purge blob cache: %w", err)
	}
	return nil
}
