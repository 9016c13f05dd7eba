// Package registry provides a SQLite-backed record of every profile
// the engine has produced, enabling cross-taxonomy role queries
// without re-reading source trees.
package registry

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/profile"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS taxonomies (
	name       TEXT NOT NULL,
	version    TEXT NOT NULL,
	namespace  TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL DEFAULT '',
	role_count INTEGER NOT NULL DEFAULT 0,
	read_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (name, version)
);

CREATE TABLE IF NOT EXISTS roles (
	taxonomy_name    TEXT NOT NULL,
	taxonomy_version TEXT NOT NULL,
	uri              TEXT NOT NULL,
	statement_type   TEXT NOT NULL,
	definition       TEXT NOT NULL DEFAULT '',
	source_schema    TEXT NOT NULL DEFAULT '',
	UNIQUE (taxonomy_name, taxonomy_version, uri)
);

CREATE INDEX IF NOT EXISTS idx_roles_statement ON roles(statement_type);
CREATE INDEX IF NOT EXISTS idx_roles_taxonomy ON roles(taxonomy_name, taxonomy_version);
`

// Store is the interface consumers depend on; *DB is the SQLite
// implementation.
type Store interface {
	Record(p *profile.Profile) error
	Taxonomies() ([]TaxonomyRow, error)
	Roles(name, version string) ([]RoleRow, error)
	RolesByStatement(statementType models.StatementType) ([]RoleRow, error)
	Close() error
}

// DB wraps a sql.DB with registry operations.
type DB struct {
	conn *sql.DB
}

var _ Store = (*DB)(nil)

// Open opens (or creates) the registry database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("registry: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("registry: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
