package gpkg

import (
	"fmt"
)

// Field is one attribute column of a vector layer.
type Field struct {
	Name    string
	Type    string // declared SQLite type
	NotNull bool
	PK      bool
}

// Layer describes one vector layer of a container. CleanName is filled by
// the pipeline after sanitization and never changes afterwards.
type Layer struct {
	Name           string
	CleanName      string
	SourcePath     string
	GeometryColumn string
	GeometryType   string // upper-case type name from gpkg_geometry_columns
	SRSID          int
	Z              int
	M              int
	Fields         []Field // attribute columns, geometry column excluded
}

// Layers enumerates the vector layers registered in gpkg_contents, skipping
// internal bookkeeping tables, and loads each layer's attribute schema.
func (c *Container) Layers() ([]Layer, error) {
	rows, err := c.Query(`
		SELECT c.table_name, g.column_name, g.geometry_type_name, g.srs_id, g.z, g.m
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		WHERE c.data_type = 'features'
		ORDER BY c.table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to read layer index (is %s a GeoPackage?): %w", c.Path, err)
	}
	defer rows.Close()

	var layers []Layer
	for rows.Next() {
		var l Layer
		if err := rows.Scan(&l.Name, &l.GeometryColumn, &l.GeometryType, &l.SRSID, &l.Z, &l.M); err != nil {
			return nil, fmt.Errorf("failed to scan layer index row: %w", err)
		}
		if IsInternalTable(l.Name) {
			continue
		}
		l.SourcePath = c.Path
		layers = append(layers, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading layer index: %w", err)
	}

	for i := range layers {
		fields, err := c.tableFields(layers[i].Name, layers[i].GeometryColumn)
		if err != nil {
			return nil, err
		}
		layers[i].Fields = fields
	}
	return layers, nil
}

// tableFields reads the attribute columns of a table, excluding the
// geometry column.
func (c *Container) tableFields(table, geomColumn string) ([]Field, error) {
	rows, err := c.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", table, err)
	}
	defer rows.Close()

	var fields []Field
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info of %s: %w", table, err)
		}
		if name == geomColumn {
			continue
		}
		fields = append(fields, Field{
			Name:    name,
			Type:    ctype,
			NotNull: notnull != 0,
			PK:      pk != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading columns of %s: %w", table, err)
	}
	return fields, nil
}

// TypeLabel returns the display label of the layer's geometry type, read
// from a representative feature ("MultiPolygon", "PointZ"). Empty when the
// layer has no readable geometry; callers substitute a generic label.
func (c *Container) TypeLabel(layer Layer) string {
	geom := quoteIdent(layer.GeometryColumn)
	var blob []byte
	err := c.QueryRow(fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s IS NOT NULL LIMIT 1",
		geom, quoteIdent(layer.Name), geom)).Scan(&blob)
	if err != nil {
		return ""
	}
	code, err := GeometryTypeCode(blob)
	if err != nil {
		return ""
	}
	return GeometryTypeName(code)
}

// FieldNames returns the layer's attribute field names in column order.
func (l *Layer) FieldNames() []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.Name
	}
	return names
}
