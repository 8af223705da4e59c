package postgis

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/maviz991/gpkgclean/internal/config"
	"github.com/maviz991/gpkgclean/internal/gpkg"
	"github.com/maviz991/gpkgclean/internal/sanitize"
)

// ImportOptions controls how one layer lands in PostGIS.
type ImportOptions struct {
	Schema         string
	TableName      string
	GeometryColumn string
	Renames        sanitize.RenameMap
	Overwrite      bool
	CreateIndex    bool
	FixGeometries  bool
	Invalid        config.InvalidPolicy
}

// ImportResult reports what an import did.
type ImportResult struct {
	Features int
	Skipped  int
	Repaired int
}

// Importer writes vector layers into a PostGIS database.
type Importer struct {
	db *sql.DB
}

func NewImporter(db *sql.DB) *Importer {
	return &Importer{db: db}
}

// ImportLayer creates schema.table and copies every feature of the source
// layer into it. Geometries travel as WKB and are decoded server side. With
// the skip policy invalid geometries are dropped and counted; with the abort
// policy the first invalid geometry fails the layer and nothing is kept.
func (im *Importer) ImportLayer(src *gpkg.Container, layer gpkg.Layer, opts ImportOptions) (*ImportResult, error) {
	if opts.TableName == "" {
		return nil, fmt.Errorf("destination table name is empty")
	}
	schema := opts.Schema
	if schema == "" {
		schema = "public"
	}
	geomCol := opts.GeometryColumn
	if geomCol == "" {
		geomCol = "geom"
	}
	qualified := fmt.Sprintf("%s.%s", quoteIdent(schema), quoteIdent(opts.TableName))

	tx, err := im.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if opts.Overwrite {
		if _, err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", qualified)); err != nil {
			return nil, fmt.Errorf("failed to drop %s: %w", qualified, err)
		}
	}
	if err := createTable(tx, qualified, geomCol, layer, opts.Renames); err != nil {
		return nil, err
	}

	result, err := copyFeatures(tx, src, layer, opts, qualified, geomCol)
	if err != nil {
		return nil, err
	}

	if opts.CreateIndex {
		indexName := fmt.Sprintf("%s_%s_idx", opts.TableName, geomCol)
		createIdx := fmt.Sprintf("CREATE INDEX %s ON %s USING GIST (%s)",
			quoteIdent(indexName), qualified, quoteIdent(geomCol))
		if _, err := tx.Exec(createIdx); err != nil {
			return nil, fmt.Errorf("failed to create spatial index on %s: %w", qualified, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import of %s: %w", qualified, err)
	}
	return result, nil
}

func createTable(tx *sql.Tx, qualified, geomCol string, layer gpkg.Layer, renames sanitize.RenameMap) error {
	cols := []string{"id BIGSERIAL PRIMARY KEY"}
	cols = append(cols, fmt.Sprintf("%s geometry(%s, %d)",
		quoteIdent(geomCol), postgisGeometryType(layer), layer.SRSID))
	for _, f := range layer.Fields {
		if f.PK {
			continue
		}
		newName, ok := renames.Get(f.Name)
		if !ok {
			newName = f.Name
		}
		def := fmt.Sprintf("%s %s", quoteIdent(newName), pgType(f.Type))
		if f.NotNull {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", qualified, strings.Join(cols, ", "))
	if _, err := tx.Exec(createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", qualified, err)
	}
	return nil
}

func copyFeatures(tx *sql.Tx, src *gpkg.Container, layer gpkg.Layer, opts ImportOptions, qualified, geomCol string) (*ImportResult, error) {
	srcCols := []string{quoteIdent(layer.GeometryColumn)}
	dstCols := []string{quoteIdent(geomCol)}
	for _, f := range layer.Fields {
		if f.PK {
			continue
		}
		srcCols = append(srcCols, quoteIdent(f.Name))
		newName, ok := opts.Renames.Get(f.Name)
		if !ok {
			newName = f.Name
		}
		dstCols = append(dstCols, quoteIdent(newName))
	}

	selectSQL := fmt.Sprintf("SELECT %s FROM %s", strings.Join(srcCols, ", "), quoteIdent(layer.Name))
	rows, err := src.Query(selectSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to read features of %s: %w", layer.Name, err)
	}
	defer rows.Close()

	placeholders := make([]string, len(dstCols))
	placeholders[0] = fmt.Sprintf("ST_GeomFromWKB($1, %d)", layer.SRSID)
	for i := 1; i < len(placeholders); i++ {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qualified, strings.Join(dstCols, ", "), strings.Join(placeholders, ", "))
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert for %s: %w", qualified, err)
	}
	defer stmt.Close()

	result := &ImportResult{}
	values := make([]interface{}, len(dstCols))
	valuePtrs := make([]interface{}, len(dstCols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan feature of %s: %w", layer.Name, err)
		}

		blob, _ := values[0].([]byte)
		if len(blob) > 0 {
			if opts.FixGeometries {
				repaired, changed, err := gpkg.RepairGeometry(blob)
				if err == nil && changed {
					blob = repaired
					result.Repaired++
				}
			}
			action, verr := applyInvalidPolicy(blob, opts.Invalid)
			switch action {
			case skipRow:
				result.Skipped++
				continue
			case abortRun:
				return nil, fmt.Errorf("invalid geometry in %s: %w", layer.Name, verr)
			}
			header, err := gpkg.ParseBlobHeader(blob)
			if err != nil {
				return nil, fmt.Errorf("bad geometry blob in %s: %w", layer.Name, err)
			}
			values[0] = blob[header.HeaderSize:]
		} else {
			values[0] = nil
		}

		if _, err := stmt.Exec(values...); err != nil {
			return nil, fmt.Errorf("failed to insert feature into %s: %w", qualified, err)
		}
		result.Features++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading features of %s: %w", layer.Name, err)
	}
	return result, nil
}

// invalidAction says what happens to one row under the invalid-geometry
// policy.
type invalidAction int

const (
	keepRow invalidAction = iota
	skipRow
	abortRun
)

// applyInvalidPolicy validates one geometry blob and maps the outcome
// through the policy: keep imports it anyway, skip drops the row, abort
// fails the layer. The validation error accompanies abortRun.
func applyInvalidPolicy(blob []byte, policy config.InvalidPolicy) (invalidAction, error) {
	err := gpkg.ValidateGeometry(blob)
	if err == nil {
		return keepRow, nil
	}
	switch policy {
	case config.SkipInvalid:
		return skipRow, nil
	case config.AbortOnInvalid:
		return abortRun, err
	default:
		return keepRow, nil
	}
}

// postgisGeometryType maps the GeoPackage declared type to a PostGIS typmod
// type, adding the Z suffix when the layer carries elevations.
func postgisGeometryType(layer gpkg.Layer) string {
	t := strings.ToUpper(layer.GeometryType)
	if t == "" || t == "GEOMETRY" {
		return "GEOMETRY"
	}
	if layer.Z > 0 && !strings.HasSuffix(t, "Z") {
		t += "Z"
	}
	return t
}

// pgType maps a declared SQLite column type to a PostgreSQL type, following
// SQLite's own affinity rules for anything unusual.
func pgType(sqliteType string) string {
	t := strings.ToUpper(sqliteType)
	switch {
	case strings.Contains(t, "INT"):
		return "BIGINT"
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return "TEXT"
	case strings.Contains(t, "BLOB"):
		return "BYTEA"
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return "DOUBLE PRECISION"
	case strings.Contains(t, "BOOL"):
		return "BOOLEAN"
	case strings.Contains(t, "DATETIME"), strings.Contains(t, "TIMESTAMP"):
		return "TIMESTAMP"
	case strings.Contains(t, "DATE"):
		return "DATE"
	case strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"):
		return "NUMERIC"
	default:
		return "TEXT"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
