package registry

import (
	"fmt"
	"time"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/profile"
)

// TaxonomyRow represents a row in the taxonomies table.
type TaxonomyRow struct {
	Name      string
	Version   string
	Namespace string
	Path      string
	RoleCount int
	ReadAt    time.Time
}

// RoleRow represents a classified role owned by one taxonomy.
type RoleRow struct {
	TaxonomyName    string
	TaxonomyVersion string
	URI             string
	StatementType   models.StatementType
	Definition      string
	SourceSchema    string
}

// Record upserts the profile's identity row and replaces its role rows
// within a transaction. Re-reading a taxonomy overwrites its previous
// registration.
func (db *DB) Record(p *profile.Profile) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("registry: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	meta := p.Metadata
	_, err = tx.Exec(`
		INSERT INTO taxonomies (name, version, namespace, path, role_count, read_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, version) DO UPDATE SET
			namespace  = excluded.namespace,
			path       = excluded.path,
			role_count = excluded.role_count,
			read_at    = excluded.read_at
	`, meta.Name, meta.Version, meta.Namespace, meta.Path, len(p.Roles), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("registry: upsert taxonomy: %w", err)
	}

	// Replace roles: delete old then bulk insert. A failed delete must
	// abort the transaction, or stale rows would survive the re-read.
	if _, err := tx.Exec(`DELETE FROM roles WHERE taxonomy_name = ? AND taxonomy_version = ?`,
		meta.Name, meta.Version); err != nil {
		return fmt.Errorf("registry: delete roles: %w", err)
	}
	if len(p.Roles) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO roles
				(taxonomy_name, taxonomy_version, uri, statement_type, definition, source_schema)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("registry: prepare role insert: %w", err)
		}
		defer stmt.Close()
		for uri, d := range p.Roles {
			if _, err := stmt.Exec(meta.Name, meta.Version, uri, string(d.Type), d.Definition, d.SourceSchema); err != nil {
				return fmt.Errorf("registry: insert role: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Taxonomies returns every registered taxonomy, most recently read first.
func (db *DB) Taxonomies() ([]TaxonomyRow, error) {
	rows, err := db.conn.Query(`
		SELECT name, version, namespace, path, role_count, read_at
		FROM taxonomies ORDER BY read_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("registry: taxonomies: %w", err)
	}
	defer rows.Close()

	var out []TaxonomyRow
	for rows.Next() {
		var t TaxonomyRow
		if err := rows.Scan(&t.Name, &t.Version, &t.Namespace, &t.Path, &t.RoleCount, &t.ReadAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Roles returns the registered roles of one taxonomy, ordered by URI.
func (db *DB) Roles(name, version string) ([]RoleRow, error) {
	return db.queryRoles(`
		SELECT taxonomy_name, taxonomy_version, uri, statement_type, definition, source_schema
		FROM roles WHERE taxonomy_name = ? AND taxonomy_version = ?
		ORDER BY uri`, name, version)
}

// RolesByStatement returns every registered role classified to the
// given statement type, across all taxonomies.
func (db *DB) RolesByStatement(statementType models.StatementType) ([]RoleRow, error) {
	return db.queryRoles(`
		SELECT taxonomy_name, taxonomy_version, uri, statement_type, definition, source_schema
		FROM roles WHERE statement_type = ?
		ORDER BY taxonomy_name, taxonomy_version, uri`, string(statementType))
}

func (db *DB) queryRoles(query string, args ...any) ([]RoleRow, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("registry: roles: %w", err)
	}
	defer rows.Close()

	var out []RoleRow
	for rows.Next() {
		var r RoleRow
		var stmt string
		if err := rows.Scan(&r.TaxonomyName, &r.TaxonomyVersion, &r.URI, &stmt, &r.Definition, &r.SourceSchema); err != nil {
			return nil, err
		}
		r.StatementType = models.StatementType(stmt)
		out = append(out, r)
	}
	return out, rows.Err()
}
