package gpkg

import (
	"fmt"
	"strings"

	"github.com/maviz991/gpkgclean/internal/sanitize"
)

const (
	// BatchSize is the number of features written per transaction.
	BatchSize = 5000
)

// CopyOptions controls a single layer copy.
type CopyOptions struct {
	TableName      string            // sanitized destination table
	GeometryColumn string            // destination geometry column name
	Renames        sanitize.RenameMap // attribute field renames
	FixGeometries  bool              // close unclosed rings while copying
}

// CopyResult reports what a layer copy did.
type CopyResult struct {
	Features int
	Repaired int
}

// CopyLayer copies one vector layer from src into the destination container,
// renaming the table, the geometry column, and the attribute fields, and
// registering the result in the GeoPackage metadata tables.
func (c *Container) CopyLayer(src *Container, layer Layer, opts CopyOptions) (*CopyResult, error) {
	if opts.TableName == "" {
		return nil, fmt.Errorf("destination table name is empty")
	}
	geomCol := opts.GeometryColumn
	if geomCol == "" {
		geomCol = layer.GeometryColumn
	}

	if err := c.createFeatureTable(layer, opts.TableName, geomCol, opts.Renames); err != nil {
		return nil, err
	}
	result, err := c.copyFeatures(src, layer, opts, geomCol)
	if err != nil {
		return nil, err
	}
	if err := c.registerLayer(src, layer, opts.TableName, geomCol); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Container) createFeatureTable(layer Layer, table, geomCol string, renames sanitize.RenameMap) error {
	cols := []string{"fid INTEGER PRIMARY KEY AUTOINCREMENT"}
	cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(geomCol), layer.GeometryType))
	for _, f := range layer.Fields {
		if f.PK {
			// the copy always gets its own fid
			continue
		}
		newName, ok := renames.Get(f.Name)
		if !ok {
			newName = f.Name
		}
		ctype := f.Type
		if ctype == "" {
			ctype = "TEXT"
		}
		def := fmt.Sprintf("%s %s", quoteIdent(newName), ctype)
		if f.NotNull {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(cols, ", "))
	if _, err := c.Exec(createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

func (c *Container) copyFeatures(src *Container, layer Layer, opts CopyOptions, geomCol string) (*CopyResult, error) {
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
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(opts.TableName),
		strings.Join(dstCols, ", "),
		strings.Join(placeholders, ", "))

	result := &CopyResult{}
	values := make([]interface{}, len(dstCols))
	valuePtrs := make([]interface{}, len(dstCols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	tx, err := c.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to prepare insert for %s: %w", opts.TableName, err)
	}

	inBatch := 0
	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			stmt.Close()
			tx.Rollback()
			return nil, fmt.Errorf("failed to scan feature of %s: %w", layer.Name, err)
		}

		if opts.FixGeometries {
			if blob, ok := values[0].([]byte); ok && len(blob) > 0 {
				repaired, changed, err := RepairGeometry(blob)
				if err == nil && changed {
					values[0] = repaired
					result.Repaired++
				}
			}
		}

		if _, err := stmt.Exec(values...); err != nil {
			stmt.Close()
			tx.Rollback()
			return nil, fmt.Errorf("failed to insert feature into %s: %w", opts.TableName, err)
		}
		result.Features++
		inBatch++

		if inBatch >= BatchSize {
			stmt.Close()
			if err := tx.Commit(); err != nil {
				return nil, fmt.Errorf("failed to commit batch into %s: %w", opts.TableName, err)
			}
			tx, err = c.Begin()
			if err != nil {
				return nil, fmt.Errorf("failed to begin transaction: %w", err)
			}
			stmt, err = tx.Prepare(insertSQL)
			if err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("failed to prepare insert for %s: %w", opts.TableName, err)
			}
			inBatch = 0
		}
	}
	if err := rows.Err(); err != nil {
		stmt.Close()
		tx.Rollback()
		return nil, fmt.Errorf("error reading features of %s: %w", layer.Name, err)
	}

	stmt.Close()
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit features into %s: %w", opts.TableName, err)
	}
	return result, nil
}

// registerLayer records the copied table in gpkg_contents and
// gpkg_geometry_columns, carrying the spatial reference definition over from
// the source container when it is not already present.
func (c *Container) registerLayer(src *Container, layer Layer, table, geomCol string) error {
	if err := c.ensureSRS(src, layer.SRSID); err != nil {
		return err
	}

	if _, err := c.Exec(`
		INSERT INTO gpkg_contents (table_name, data_type, identifier, srs_id)
		VALUES (?, 'features', ?, ?)`,
		table, table, layer.SRSID); err != nil {
		return fmt.Errorf("failed to register %s in gpkg_contents: %w", table, err)
	}
	if _, err := c.Exec(`
		INSERT INTO gpkg_geometry_columns (table_name, column_name, geometry_type_name, srs_id, z, m)
		VALUES (?, ?, ?, ?, ?, ?)`,
		table, geomCol, layer.GeometryType, layer.SRSID, layer.Z, layer.M); err != nil {
		return fmt.Errorf("failed to register %s in gpkg_geometry_columns: %w", table, err)
	}
	return nil
}

func (c *Container) ensureSRS(src *Container, srsID int) error {
	var n int
	if err := c.QueryRow("SELECT COUNT(*) FROM gpkg_spatial_ref_sys WHERE srs_id = ?", srsID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check spatial reference %d: %w", srsID, err)
	}
	if n > 0 {
		return nil
	}

	var name, org, definition string
	var orgID int
	var description interface{}
	err := src.QueryRow(`
		SELECT srs_name, organization, organization_coordsys_id, definition, description
		FROM gpkg_spatial_ref_sys WHERE srs_id = ?`, srsID).
		Scan(&name, &org, &orgID, &definition, &description)
	if err != nil {
		return fmt.Errorf("spatial reference %d not found in source container: %w", srsID, err)
	}
	if _, err := c.Exec(`
		INSERT INTO gpkg_spatial_ref_sys (srs_name, srs_id, organization, organization_coordsys_id, definition, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		name, srsID, org, orgID, definition, description); err != nil {
		return fmt.Errorf("failed to copy spatial reference %d: %w", srsID, err)
	}
	return nil
}

// RenameFields renames attribute columns of a layer in place, using
// ALTER TABLE. Names that do not change are skipped.
func (c *Container) RenameFields(table string, renames sanitize.RenameMap) (int, error) {
	renamed := 0
	for _, r := range renames.Changed() {
		alterSQL := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			quoteIdent(table), quoteIdent(r.From), quoteIdent(r.To))
		if _, err := c.Exec(alterSQL); err != nil {
			return renamed, fmt.Errorf("failed to rename %s.%s to %s: %w", table, r.From, r.To, err)
		}
		renamed++
	}
	return renamed, nil
}
