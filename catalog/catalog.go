/*
Copyright © 2024 the slstr authors.
This file is part of slstr.

slstr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

slstr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with slstr.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package catalog keeps a local SQLite index of Sentinel-3 products.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ningaloo-research/slstr/productid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Product is a catalogued product.
type Product struct {
	ID   int64
	Name string
	Path string

	Mission    string
	DataType   string
	Level      string
	Timeliness string
	Center     string
	Baseline   string

	// SensingStart and SensingStop are zero when the identifier holds
	// malformed times.
	SensingStart time.Time
	SensingStop  time.Time

	Cycle, Orbit string
}

// DB wraps a SQLite database connection for product storage.
type DB struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		path TEXT NOT NULL,
		mission TEXT NOT NULL,
		data_type TEXT NOT NULL,
		level TEXT NOT NULL,
		timeliness TEXT,
		center TEXT,
		baseline TEXT,
		sensing_start TEXT,
		sensing_stop TEXT,
		cycle TEXT,
		orbit TEXT,
		added_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_products_mission ON products(mission);
	CREATE INDEX IF NOT EXISTS idx_products_data_type ON products(data_type);
	CREATE INDEX IF NOT EXISTS idx_products_sensing_start ON products(sensing_start);
	`
	_, err := db.Exec(schema)
	return err
}

func formatTime(t time.Time, err error) interface{} {
	if err != nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// Insert stores the product named by id and found at path. A product
// with the same name replaces the existing entry.
func (d *DB) Insert(id *productid.Identifier, path string) error {
	_, err := d.db.Exec(`
		INSERT INTO products (name, path, mission, data_type, level, timeliness, center, baseline,
			sensing_start, sensing_stop, cycle, orbit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			path = excluded.path,
			added_at = datetime('now')
	`, id.String(), path, id.MissionID(), id.DataTypeID(), id.ProcessLevel(), id.Timeliness(),
		id.ProductGeneratingCenter(), id.BaselineCollection(),
		formatTime(id.SensingStart()), formatTime(id.SensingStop()),
		id.CycleNumberAtStart(), id.OrbitNumber())
	if err != nil {
		return fmt.Errorf("catalog: insert product: %w", err)
	}
	return nil
}

// QueryParams contains filtering options for querying products.
type QueryParams struct {
	Mission  string    // Filter by mission (exact match).
	DataType string    // Filter by data type (exact match).
	Since    time.Time // Only products sensed at or after this time.
	Until    time.Time // Only products sensed before this time.
	Limit    int       // Max results (default 100).
}

// Query retrieves products matching the given parameters, ordered by
// sensing start time.
func (d *DB) Query(p QueryParams) ([]Product, error) {
	var conditions []string
	var args []interface{}

	if p.Mission != "" {
		conditions = append(conditions, "mission = ?")
		args = append(args, p.Mission)
	}
	if p.DataType != "" {
		conditions = append(conditions, "data_type = ?")
		args = append(args, p.DataType)
	}
	if !p.Since.IsZero() {
		conditions = append(conditions, "sensing_start >= ?")
		args = append(args, p.Since.UTC().Format(time.RFC3339))
	}
	if !p.Until.IsZero() {
		conditions = append(conditions, "sensing_start < ?")
		args = append(args, p.Until.UTC().Format(time.RFC3339))
	}

	query := `SELECT id, name, path, mission, data_type, level, timeliness, center, baseline,
			sensing_start, sensing_stop, cycle, orbit
			FROM products`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	limit := 100
	if p.Limit > 0 {
		limit = p.Limit
	}
	query += fmt.Sprintf(" ORDER BY sensing_start ASC, name ASC LIMIT %d", limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []Product
	for rows.Next() {
		var pr Product
		var timeliness, center, baseline, start, stop, cycle, orbit sql.NullString
		err := rows.Scan(&pr.ID, &pr.Name, &pr.Path, &pr.Mission, &pr.DataType, &pr.Level,
			&timeliness, &center, &baseline, &start, &stop, &cycle, &orbit)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan row: %w", err)
		}
		pr.Timeliness = timeliness.String
		pr.Center = center.String
		pr.Baseline = baseline.String
		pr.Cycle = cycle.String
		pr.Orbit = orbit.String
		if start.Valid {
			pr.SensingStart, _ = time.Parse(time.RFC3339, start.String)
		}
		if stop.Valid {
			pr.SensingStop, _ = time.Parse(time.RFC3339, stop.String)
		}
		products = append(products, pr)
	}
	return products, rows.Err()
}

// Stats returns aggregate statistics about catalogued products.
type Stats struct {
	Total      int
	ByMission  map[string]int
	ByDataType map[string]int
}

// Stats computes catalog statistics.
func (d *DB) Stats() (*Stats, error) {
	s := &Stats{
		ByMission:  make(map[string]int),
		ByDataType: make(map[string]int),
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&s.Total); err != nil {
		return nil, fmt.Errorf("catalog: count products: %w", err)
	}
	for col, m := range map[string]map[string]int{"mission": s.ByMission, "data_type": s.ByDataType} {
		rows, err := d.db.Query(fmt.Sprintf("SELECT %s, COUNT(*) FROM products GROUP BY %s", col, col))
		if err != nil {
			return nil, fmt.Errorf("catalog: count by %s: %w", col, err)
		}
		for rows.Next() {
			var k string
			var n int
			if err := rows.Scan(&k, &n); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("catalog: scan row: %w", err)
			}
			m[k] = n
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Scan adds every SAFE directory found under root to the catalog and
// returns the number added. Directories whose names cannot be decoded are
// logged and skipped.
func Scan(d *DB, root string) (int, error) {
	n := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() || !strings.HasSuffix(info.Name(), ".SEN3") {
			return nil
		}
		log := logrus.WithField("path", path)
		id, err := productid.Decode(info.Name())
		if err != nil {
			log.WithError(err).Warn("catalog: skipping undecodable product")
			return filepath.SkipDir
		}
		if err := d.Insert(id, path); err != nil {
			return err
		}
		log.Debug("catalog: added product")
		n++
		return filepath.SkipDir
	})
	if err != nil {
		return n, fmt.Errorf("catalog: scanning %s: %w", root, err)
	}
	return n, nil
}
