package pipeline

import (
	"database/sql"
	"fmt"
	"io"
	"path/filepath"

	"github.com/maviz991/gpkgclean/internal/config"
	"github.com/maviz991/gpkgclean/internal/gpkg"
	"github.com/maviz991/gpkgclean/internal/postgis"
	"github.com/maviz991/gpkgclean/internal/sanitize"
	"github.com/maviz991/gpkgclean/internal/style"
)

// Runner executes the clean-and-export flow for one input container.
type Runner struct {
	cfg config.Config
	out io.Writer
}

// New builds a Runner. Progress and the final report go to out.
func New(cfg config.Config, out io.Writer) *Runner {
	return &Runner{cfg: cfg, out: out}
}

// OutputPath returns where the cleaned container is written: the configured
// path, or the input path with the output prefix prepended to the file name.
func (r *Runner) OutputPath() string {
	if r.cfg.OutputGPKG != "" {
		return r.cfg.OutputGPKG
	}
	dir := filepath.Dir(r.cfg.InputGPKG)
	return filepath.Join(dir, r.cfg.OutputPrefix+filepath.Base(r.cfg.InputGPKG))
}

func (r *Runner) sldFolder() string {
	if r.cfg.SLDFolder != "" {
		return r.cfg.SLDFolder
	}
	return filepath.Join(filepath.Dir(r.OutputPath()), "SLD")
}

// Run processes every selected layer sequentially. Only setup problems
// (unreadable input, unknown connection) return an error; per-layer failures
// land in the report and the run continues.
func (r *Runner) Run() (*Report, error) {
	src, err := gpkg.Open(r.cfg.InputGPKG)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	layers, err := src.Layers()
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("no vector layers found in %s", r.cfg.InputGPKG)
	}

	var dst *gpkg.Container
	if r.cfg.WriteLocalGPKG {
		dst, err = gpkg.Create(r.OutputPath())
		if err != nil {
			return nil, err
		}
		defer dst.Close()
		infoColor.Fprintf(r.out, "Writing cleaned container to %s\n", r.OutputPath())
	}

	var (
		db       *sql.DB
		importer *postgis.Importer
		dbStyles *postgis.StyleWriter
	)
	if r.cfg.UploadToPostGIS || r.cfg.UploadStyles {
		store, err := postgis.LoadStore(r.cfg.ConnectionsFn)
		if err != nil {
			return nil, err
		}
		creds, err := store.Credentials(r.cfg.ConnectionName)
		if err != nil {
			return nil, err
		}
		db, err = postgis.Connect(creds)
		if err != nil {
			return nil, fmt.Errorf("database connection %q: %w", r.cfg.ConnectionName, err)
		}
		defer db.Close()
		importer = postgis.NewImporter(db)
		if r.cfg.UploadStyles {
			dbStyles, err = postgis.NewStyleWriter(db, creds.Database)
			if err != nil {
				return nil, err
			}
		}
		infoColor.Fprintf(r.out, "Connected to %s (%s@%s)\n", r.cfg.ConnectionName, creds.User, creds.Host)
	}

	tables := sanitize.NewRenamer()
	report := &Report{}

	for i, layer := range layers {
		if !r.selected(i) {
			continue
		}
		result := r.processLayer(src, dst, importer, dbStyles, layer, i, tables)
		report.Add(result)
	}

	report.Print(r.out)
	return report, nil
}

// selected reports whether the layer at zero-based index i passes the filter.
func (r *Runner) selected(i int) bool {
	if len(r.cfg.LayerFilter) == 0 {
		return true
	}
	for _, want := range r.cfg.LayerFilter {
		if want == i {
			return true
		}
	}
	return false
}

// tableName derives the destination table for one layer, resolving sanitized
// duplicates across the run.
func (r *Runner) tableName(layer gpkg.Layer, seq int, tables *sanitize.Renamer) (string, error) {
	var candidate string
	if r.cfg.NumberTables {
		base := sanitize.Identifier(layer.Name, sanitize.Options{
			Convention: r.cfg.Convention,
			MaxLen:     r.cfg.TruncateLimit,
		})
		candidate = fmt.Sprintf("%s%02d_%s", r.cfg.TablePrefix, seq+1, base)
		if len(candidate) > r.cfg.TruncateLimit {
			candidate = candidate[:r.cfg.TruncateLimit]
		}
	} else {
		candidate = sanitize.Identifier(layer.Name, sanitize.Options{
			Convention: r.cfg.Convention,
			Prefix:     r.cfg.TablePrefix,
			MaxLen:     r.cfg.TruncateLimit,
		})
	}

	resolved := tables.Resolve(candidate)
	if resolved != candidate && r.cfg.OnDuplicate == config.ErrorDuplicate {
		return "", fmt.Errorf("table name %q already produced by an earlier layer", candidate)
	}
	return resolved, nil
}

func (r *Runner) processLayer(src, dst *gpkg.Container, importer *postgis.Importer, dbStyles *postgis.StyleWriter, layer gpkg.Layer, seq int, tables *sanitize.Renamer) LayerResult {
	result := LayerResult{Index: seq, Source: layer.Name}
	infoColor.Fprintf(r.out, "Processing layer %d: %s\n", seq+1, layer.Name)

	table, err := r.tableName(layer, seq, tables)
	if err != nil {
		if r.cfg.WriteLocalGPKG {
			result.LocalWrite = failed(err)
		}
		if r.cfg.UploadToPostGIS {
			result.DBImport = failed(err)
		}
		return result
	}
	layer.CleanName = table
	result.CleanName = table
	result.Renames = sanitize.FieldRenames(layer.FieldNames(), r.cfg.Convention, r.cfg.TruncateLimit)

	if r.cfg.WriteLocalGPKG {
		copied, err := dst.CopyLayer(src, layer, gpkg.CopyOptions{
			TableName:      table,
			GeometryColumn: r.cfg.GeometryColumn,
			Renames:        result.Renames,
			FixGeometries:  r.cfg.FixGeometries,
		})
		if err != nil {
			result.LocalWrite = failed(err)
		} else {
			result.LocalWrite = success()
			result.Features = copied.Features
			result.Repaired = copied.Repaired
		}
	}

	var payload style.Payload
	wantStyles := r.cfg.WriteLocalStyles || r.cfg.UploadStyles || r.cfg.WriteSLDFiles
	var styleErr error
	if wantStyles {
		payload, styleErr = style.Export(src, layer, result.Renames)
	}

	if r.cfg.WriteLocalStyles && r.cfg.WriteLocalGPKG {
		switch {
		case result.LocalWrite.Status != StageSuccess:
			result.LocalStyle = failed(fmt.Errorf("layer was not written locally"))
		case styleErr != nil:
			result.LocalStyle = failed(styleErr)
		default:
			err := dst.EnsureLayerStyles()
			if err == nil {
				err = dst.SaveStyle(table, r.cfg.GeometryColumn, payload.QML, payload.SLD)
			}
			if err != nil {
				result.LocalStyle = failed(err)
			} else {
				result.LocalStyle = success()
			}
		}
	}

	if r.cfg.UploadToPostGIS {
		imported, err := importer.ImportLayer(src, layer, postgis.ImportOptions{
			Schema:         r.cfg.Schema,
			TableName:      table,
			GeometryColumn: r.cfg.GeometryColumn,
			Renames:        result.Renames,
			Overwrite:      r.cfg.Overwrite,
			CreateIndex:    r.cfg.CreateIndex,
			FixGeometries:  r.cfg.FixGeometries,
			Invalid:        r.cfg.Invalid,
		})
		if err != nil {
			result.DBImport = failed(err)
		} else {
			result.DBImport = success()
			result.Skipped = imported.Skipped
			if result.Repaired == 0 {
				result.Repaired = imported.Repaired
			}
		}
	}

	if r.cfg.UploadStyles {
		switch {
		case r.cfg.UploadToPostGIS && result.DBImport.Status != StageSuccess:
			result.DBStyle = failed(fmt.Errorf("layer was not imported"))
		case styleErr != nil:
			result.DBStyle = failed(styleErr)
		default:
			err := dbStyles.SaveStyle(r.cfg.Schema, table, r.cfg.GeometryColumn, src.TypeLabel(layer), payload)
			if err != nil {
				result.DBStyle = failed(err)
			} else {
				result.DBStyle = success()
			}
		}
	}

	if r.cfg.WriteSLDFiles {
		if styleErr != nil {
			result.SLDFile = failed(styleErr)
		} else {
			fileName := style.SLDFileName("", 0, table)
			if _, err := style.WriteSLDFile(r.sldFolder(), fileName, payload.SLD); err != nil {
				result.SLDFile = failed(err)
			} else {
				result.SLDFile = success()
			}
		}
	}

	return result
}
