package postgis

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/maviz991/gpkgclean/internal/style"
)

const layerStylesDDL = `
CREATE TABLE IF NOT EXISTS public.layer_styles (
	id SERIAL PRIMARY KEY,
	f_table_catalog VARCHAR,
	f_table_schema VARCHAR,
	f_table_name VARCHAR,
	f_geometry_column VARCHAR,
	stylename TEXT,
	styleqml XML,
	stylesld XML,
	useasdefault BOOLEAN,
	description TEXT,
	owner VARCHAR(63),
	ui XML,
	update_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	type VARCHAR
);
CREATE UNIQUE INDEX IF NOT EXISTS layer_styles_key
	ON public.layer_styles (f_table_schema, f_table_name, stylename)`

// StyleWriter saves QGIS styles into public.layer_styles.
type StyleWriter struct {
	db      *sql.DB
	catalog string
}

// NewStyleWriter prepares a writer for the database named catalog, creating
// the layer_styles table when it does not exist yet.
func NewStyleWriter(db *sql.DB, catalog string) (*StyleWriter, error) {
	for _, stmt := range strings.Split(layerStylesDDL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to prepare layer_styles: %w", err)
		}
	}
	return &StyleWriter{db: db, catalog: catalog}, nil
}

// saveStyleSQL upserts one style row. A style may carry only one of the two
// payloads; NULLIF keeps XMLPARSE away from the empty side, which PostgreSQL
// would reject as a document.
const saveStyleSQL = `
		INSERT INTO public.layer_styles
			(f_table_catalog, f_table_schema, f_table_name, f_geometry_column,
			 stylename, styleqml, stylesld, useasdefault, description, owner, type)
		VALUES ($1, $2, $3, $4, $5, XMLPARSE(DOCUMENT NULLIF($6, '')), XMLPARSE(DOCUMENT NULLIF($7, '')), TRUE, $8, CURRENT_USER, $9)
		ON CONFLICT (f_table_schema, f_table_name, stylename) DO UPDATE SET
			f_table_catalog = EXCLUDED.f_table_catalog,
			f_geometry_column = EXCLUDED.f_geometry_column,
			styleqml = EXCLUDED.styleqml,
			stylesld = EXCLUDED.stylesld,
			useasdefault = EXCLUDED.useasdefault,
			description = EXCLUDED.description,
			owner = EXCLUDED.owner,
			update_time = CURRENT_TIMESTAMP,
			type = EXCLUDED.type`

// SaveStyle registers the style as the default for schema.table. An existing
// style with the same name is replaced in a single statement, so readers
// never observe the table without its style.
func (w *StyleWriter) SaveStyle(schema, table, geomCol, geomType string, p style.Payload) error {
	if p.Empty() {
		return fmt.Errorf("style for %s.%s is empty", schema, table)
	}
	if geomType == "" {
		geomType = "Geometry"
	}
	description := "Carregado em " + time.Now().Format("2006-01-02 15:04:05")

	_, err := w.db.Exec(saveStyleSQL,
		w.catalog, schema, table, geomCol, table, p.QML, p.SLD, description, geomType)
	if err != nil {
		return fmt.Errorf("failed to save style for %s.%s: %w", schema, table, err)
	}
	return nil
}
