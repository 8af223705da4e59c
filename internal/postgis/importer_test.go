package postgis

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/maviz991/gpkgclean/internal/config"
	"github.com/maviz991/gpkgclean/internal/gpkg"
)

func TestPGType(t *testing.T) {
	tests := []struct {
		sqlite string
		want   string
	}{
		{"INTEGER", "BIGINT"},
		{"MEDIUMINT", "BIGINT"},
		{"TEXT", "TEXT"},
		{"TEXT(50)", "TEXT"},
		{"VARCHAR(30)", "TEXT"},
		{"BLOB", "BYTEA"},
		{"REAL", "DOUBLE PRECISION"},
		{"DOUBLE", "DOUBLE PRECISION"},
		{"BOOLEAN", "BOOLEAN"},
		{"DATETIME", "TIMESTAMP"},
		{"DATE", "DATE"},
		{"NUMERIC(10,2)", "NUMERIC"},
		{"", "TEXT"},
	}
	for _, tt := range tests {
		if got := pgType(tt.sqlite); got != tt.want {
			t.Errorf("pgType(%q) = %q, want %q", tt.sqlite, got, tt.want)
		}
	}
}

func TestPostgisGeometryType(t *testing.T) {
	tests := []struct {
		name  string
		layer gpkg.Layer
		want  string
	}{
		{"polygon", gpkg.Layer{GeometryType: "POLYGON"}, "POLYGON"},
		{"point with z", gpkg.Layer{GeometryType: "POINT", Z: 1}, "POINTZ"},
		{"generic", gpkg.Layer{GeometryType: "GEOMETRY"}, "GEOMETRY"},
		{"empty", gpkg.Layer{}, "GEOMETRY"},
		{"lowercase from source", gpkg.Layer{GeometryType: "multipolygon"}, "MULTIPOLYGON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := postgisGeometryType(tt.layer); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent(`uso_do_solo`); got != `"uso_do_solo"` {
		t.Errorf("got %s", got)
	}
	if got := quoteIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("got %s", got)
	}
}

// testPointBlob builds a GeoPackage point blob with no envelope.
func testPointBlob(x, y float64) []byte {
	var buf bytes.Buffer
	buf.WriteString("GP")
	buf.WriteByte(0)
	buf.WriteByte(0x01)
	binary.Write(&buf, binary.LittleEndian, int32(4326))
	buf.WriteByte(1)
	binary.Write(&buf, binary.LittleEndian, uint32(1))
	binary.Write(&buf, binary.LittleEndian, math.Float64bits(x))
	binary.Write(&buf, binary.LittleEndian, math.Float64bits(y))
	return buf.Bytes()
}

func TestApplyInvalidPolicy(t *testing.T) {
	valid := testPointBlob(330000, 7390000)
	invalid := testPointBlob(math.NaN(), math.NaN())

	tests := []struct {
		name   string
		blob   []byte
		policy config.InvalidPolicy
		want   invalidAction
	}{
		{"valid geometry passes any policy", valid, config.AbortOnInvalid, keepRow},
		{"keep imports invalid as-is", invalid, config.KeepInvalid, keepRow},
		{"skip drops the row", invalid, config.SkipInvalid, skipRow},
		{"abort fails the layer", invalid, config.AbortOnInvalid, abortRun},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := applyInvalidPolicy(tt.blob, tt.policy)
			if action != tt.want {
				t.Errorf("got action %d, want %d", action, tt.want)
			}
			if tt.want == abortRun && err == nil {
				t.Error("abort must carry the validation error")
			}
			if tt.want != abortRun && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
