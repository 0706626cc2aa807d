package ownroutepostgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownroute-app/ownroute"
	"github.com/jamesrr39/ownroute-app/ownroutedal"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const postgresqlSchema = `
CREATE TABLE IF NOT EXISTS map_documents (
	key TEXT PRIMARY KEY,
	document JSONB NOT NULL,
	element_count INTEGER NOT NULL,
	created_at TIMESTAMP WITHOUT TIME ZONE NOT NULL
)`

var _ ownroutedal.MapDocumentCache = &PostgresCache{}

type PostgresCache struct {
	db *sqlx.DB
}

func NewPostgresCache(db *sqlx.DB) *PostgresCache {
	return &PostgresCache{db}
}

// NewDBConn opens a connection from a connection path without the "postgresql://" prefix, e.g. "user:pass@localhost/ownroute?sslmode=disable",
// and creates the schema if it doesn't exist yet
func NewDBConn(ctx context.Context, connStr string) (*PostgresCache, errorsx.Error) {
	db, err := sqlx.Open("postgres", "postgresql://"+connStr)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	_, err = db.ExecContext(ctx, postgresqlSchema)
	if err != nil {
		db.Close()
		return nil, errorsx.Wrap(err)
	}

	return NewPostgresCache(db), nil
}

func (c *PostgresCache) Name() string {
	return "postgresql database"
}

func (c *PostgresCache) Close() error {
	return c.db.Close()
}

func (c *PostgresCache) Get(ctx context.Context, key string) (*ownroute.MapDocument, errorsx.Error) {
	var documentJSON []byte
	err := c.db.GetContext(ctx, &documentJSON, `SELECT document FROM map_documents WHERE key = $1`, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errorsx.Wrap(ownroutedal.ErrCacheMiss, "key", key)
		}
		return nil, errorsx.Wrap(err, "key", key)
	}

	doc := new(ownroute.MapDocument)
	err = json.Unmarshal(documentJSON, doc)
	if err != nil {
		return nil, errorsx.Wrap(err, "key", key)
	}

	return doc, nil
}

func (c *PostgresCache) Put(ctx context.Context, key string, doc *ownroute.MapDocument) errorsx.Error {
	documentJSON, err := json.Marshal(doc)
	if err != nil {
		return errorsx.Wrap(err, "key", key)
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return errorsx.Wrap(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO map_documents (key, document, element_count, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			document = EXCLUDED.document,
			element_count = EXCLUDED.element_count,
			created_at = EXCLUDED.created_at
	`, key, documentJSON, len(doc.Elements), time.Now().UTC())
	if err != nil {
		return errorsx.Wrap(err, "key", key)
	}

	err = tx.Commit()
	if err != nil {
		return errorsx.Wrap(err, "key", key)
	}

	return nil
}

func (c *PostgresCache) Keys(ctx context.Context) ([]string, errorsx.Error) {
	keys := []string{}
	err := c.db.SelectContext(ctx, &keys, `SELECT key FROM map_documents ORDER BY key`)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return keys, nil
}
