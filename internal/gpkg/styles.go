package gpkg

import (
	"database/sql"
	"errors"
	"fmt"
)

// layerStylesDDL mirrors the registry table the desktop GIS expects inside a
// GeoPackage. The unique index on (f_table_name, styleName) backs the
// atomic upsert.
const layerStylesDDL = `
CREATE TABLE IF NOT EXISTS layer_styles (
	id                INTEGER  PRIMARY KEY AUTOINCREMENT,
	f_table_catalog   TEXT     DEFAULT '',
	f_table_schema    TEXT     DEFAULT '',
	f_table_name      TEXT     NOT NULL,
	f_geometry_column TEXT     DEFAULT 'geom',
	styleName         TEXT     NOT NULL,
	styleQML          TEXT,
	styleSLD          TEXT,
	useAsDefault      INTEGER  DEFAULT 1,
	description       TEXT     DEFAULT '',
	owner             TEXT     DEFAULT '',
	ui                TEXT,
	update_time       DATETIME DEFAULT (strftime('%Y-%m-%dT%H:%M:%S','now'))
);
CREATE UNIQUE INDEX IF NOT EXISTS layer_styles_table_style
	ON layer_styles (f_table_name, styleName);
`

// EnsureLayerStyles creates the layer_styles registry table if it does not
// exist yet. Safe to call once per layer.
func (c *Container) EnsureLayerStyles() error {
	if _, err := c.Exec(layerStylesDDL); err != nil {
		return fmt.Errorf("failed to create layer_styles table: %w", err)
	}
	return nil
}

// SaveStyle upserts a style row keyed by (table name, style name). The style
// name follows the table name, matching how the desktop GIS registers its
// default style.
func (c *Container) SaveStyle(tableName, geomColumn, qml, sld string) error {
	_, err := c.Exec(`
		INSERT INTO layer_styles
			(f_table_catalog, f_table_schema, f_table_name, f_geometry_column,
			 styleName, styleQML, styleSLD, useAsDefault, description, owner)
		VALUES ('', '', ?, ?, ?, ?, ?, 1, '', '')
		ON CONFLICT (f_table_name, styleName) DO UPDATE SET
			f_geometry_column = excluded.f_geometry_column,
			styleQML          = excluded.styleQML,
			styleSLD          = excluded.styleSLD,
			update_time       = strftime('%Y-%m-%dT%H:%M:%S','now')`,
		tableName, geomColumn, tableName, qml, sld)
	if err != nil {
		return fmt.Errorf("failed to save style for %s: %w", tableName, err)
	}
	return nil
}

// LoadStyle reads the QML and SLD payloads registered for a layer, if any.
func (c *Container) LoadStyle(tableName string) (qml, sld string, ok bool, err error) {
	var hasTable int
	err = c.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'layer_styles'").
		Scan(&hasTable)
	if err != nil {
		return "", "", false, fmt.Errorf("failed to probe layer_styles: %w", err)
	}
	if hasTable == 0 {
		return "", "", false, nil
	}

	var qmlVal, sldVal interface{}
	err = c.QueryRow(`
		SELECT styleQML, styleSLD FROM layer_styles
		WHERE f_table_name = ?
		ORDER BY useAsDefault DESC, id DESC LIMIT 1`, tableName).
		Scan(&qmlVal, &sldVal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", false, nil
		}
		return "", "", false, fmt.Errorf("failed to read style of %s: %w", tableName, err)
	}
	return asString(qmlVal), asString(sldVal), true, nil
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}
