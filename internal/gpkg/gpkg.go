// Package gpkg provides read and write access to GeoPackage containers.
//
// A GeoPackage is a SQLite file with a fixed set of bookkeeping tables
// (gpkg_contents, gpkg_geometry_columns, gpkg_spatial_ref_sys, ...) that
// index the vector layers it holds. This package enumerates those layers,
// reads their attribute schema, copies them into a fresh container with
// renamed columns, and maintains the layer_styles registry.
package gpkg

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ApplicationID is the SQLite application_id of a GeoPackage ("GPKG").
const ApplicationID = 0x47504B47

// SublayerSeparator joins the segments of a sublayer descriptor.
const SublayerSeparator = "!!::!!"

// internalTables are container and host bookkeeping tables that must never
// be treated as vector layers.
var internalTables = map[string]struct{}{
	"layer_styles":                  {},
	"qgis_projects":                 {},
	"gpkg_contents":                 {},
	"gpkg_geometry_columns":         {},
	"gpkg_spatial_ref_sys":          {},
	"gpkg_extensions":               {},
	"gpkg_metadata":                 {},
	"gpkg_metadata_reference":       {},
	"gpkg_data_columns":             {},
	"gpkg_data_column_constraints":  {},
	"gpkg_tile_matrix":              {},
	"gpkg_tile_matrix_set":          {},
	"gpkg_ogr_contents":             {},
	"sqlite_sequence":               {},
}

// IsInternalTable reports whether name is container bookkeeping rather than
// a vector layer.
func IsInternalTable(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := internalTables[lower]; ok {
		return true
	}
	return strings.HasPrefix(lower, "rtree_") || strings.HasPrefix(lower, "sqlite_")
}

// Container wraps an open GeoPackage file.
type Container struct {
	*sql.DB
	Path string
}

// Open opens an existing GeoPackage for reading or in-place editing.
func Open(path string) (*Container, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("GeoPackage not found: %s", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoPackage: %w", err)
	}
	return &Container{DB: db, Path: path}, nil
}

// Create creates a fresh GeoPackage at path, removing any existing file
// first, and initializes the required metadata tables.
func Create(path string) (*Container, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove existing GeoPackage %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to create GeoPackage: %w", err)
	}
	c := &Container{DB: db, Path: path}
	if err := c.initSchema(); err != nil {
		db.Close()
		os.Remove(path)
		return nil, err
	}
	return c, nil
}

func (c *Container) initSchema() error {
	stmts := []string{
		fmt.Sprintf("PRAGMA application_id = %d", ApplicationID),
		"PRAGMA user_version = 10300",
		`CREATE TABLE gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`INSERT INTO gpkg_spatial_ref_sys VALUES
			('Undefined Cartesian SRS', -1, 'NONE', -1, 'undefined', 'undefined cartesian coordinate reference system'),
			('Undefined Geographic SRS', 0, 'NONE', 0, 'undefined', 'undefined geographic coordinate reference system'),
			('WGS 84', 4326, 'EPSG', 4326,
			 'GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]',
			 'longitude/latitude coordinates in decimal degrees on the WGS 84 spheroid')`,
		`CREATE TABLE gpkg_contents (
			table_name TEXT NOT NULL PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER,
			CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
		)`,
		`CREATE TABLE gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name),
			CONSTRAINT fk_gc_tn FOREIGN KEY (table_name) REFERENCES gpkg_contents(table_name),
			CONSTRAINT fk_gc_srs FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := c.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize GeoPackage schema: %w", err)
		}
	}
	return nil
}

// SublayerDescriptors returns the container's sublayer index: one descriptor
// per vector layer, segments joined by the separator token
// (index, name, feature count, geometry type).
func (c *Container) SublayerDescriptors() ([]string, error) {
	layers, err := c.Layers()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(layers))
	for i, l := range layers {
		count, err := c.featureCount(l.Name)
		if err != nil {
			count = -1
		}
		out = append(out, strings.Join([]string{
			fmt.Sprintf("%d", i),
			l.Name,
			fmt.Sprintf("%d", count),
			l.GeometryType,
		}, SublayerSeparator))
	}
	return out, nil
}

// ParseSublayerName extracts the human-readable layer name from a sublayer
// descriptor: the second separator-joined segment, falling back to a
// colon-separated form.
func ParseSublayerName(descriptor string) string {
	if strings.Contains(descriptor, SublayerSeparator) {
		parts := strings.Split(descriptor, SublayerSeparator)
		if len(parts) > 1 {
			return parts[1]
		}
		return ""
	}
	parts := strings.SplitN(descriptor, ":", 2)
	if len(parts) > 1 {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func (c *Container) featureCount(table string) (int, error) {
	var n int
	err := c.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count features of %s: %w", table, err)
	}
	return n, nil
}

// quoteIdent quotes a SQL identifier for SQLite.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
