package gpkg

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// blobHeader builds a GeoPackage binary header: little endian, no envelope.
func blobHeader(srsID int32, empty bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("GP")
	buf.WriteByte(0)
	flags := byte(0x01)
	if empty {
		flags |= 0x10
	}
	buf.WriteByte(flags)
	binary.Write(&buf, binary.LittleEndian, srsID)
	return buf.Bytes()
}

func pointBlob(srsID int32, x, y float64) []byte {
	var buf bytes.Buffer
	buf.Write(blobHeader(srsID, false))
	buf.WriteByte(1)
	binary.Write(&buf, binary.LittleEndian, uint32(wkbPoint))
	binary.Write(&buf, binary.LittleEndian, x)
	binary.Write(&buf, binary.LittleEndian, y)
	return buf.Bytes()
}

// polygonBlob builds a single-ring polygon from xy pairs.
func polygonBlob(srsID int32, ring [][2]float64) []byte {
	var buf bytes.Buffer
	buf.Write(blobHeader(srsID, false))
	buf.WriteByte(1)
	binary.Write(&buf, binary.LittleEndian, uint32(wkbPolygon))
	binary.Write(&buf, binary.LittleEndian, uint32(1))
	binary.Write(&buf, binary.LittleEndian, uint32(len(ring)))
	for _, pt := range ring {
		binary.Write(&buf, binary.LittleEndian, pt[0])
		binary.Write(&buf, binary.LittleEndian, pt[1])
	}
	return buf.Bytes()
}

func TestParseBlobHeader(t *testing.T) {
	blob := pointBlob(31983, 330000, 7390000)
	h, err := ParseBlobHeader(blob)
	if err != nil {
		t.Fatalf("ParseBlobHeader() error = %v", err)
	}
	if h.SRSID != 31983 {
		t.Errorf("SRSID = %d, want 31983", h.SRSID)
	}
	if h.Empty {
		t.Error("Empty = true, want false")
	}
	if h.HeaderSize != 8 {
		t.Errorf("HeaderSize = %d, want 8", h.HeaderSize)
	}
}

func TestParseBlobHeaderRejectsGarbage(t *testing.T) {
	if _, err := ParseBlobHeader([]byte("notgpkg!")); err == nil {
		t.Error("expected error for missing magic")
	}
	if _, err := ParseBlobHeader([]byte{'G', 'P'}); err == nil {
		t.Error("expected error for short blob")
	}
}

func TestGeometryTypeName(t *testing.T) {
	tests := []struct {
		code uint32
		want string
	}{
		{1, "Point"},
		{3, "Polygon"},
		{6, "MultiPolygon"},
		{1003, "PolygonZ"},
		{2002, "LineStringM"},
		{3006, "MultiPolygonZM"},
		{42, "Geometry42"},
	}
	for _, tt := range tests {
		if got := GeometryTypeName(tt.code); got != tt.want {
			t.Errorf("GeometryTypeName(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestValidateGeometry(t *testing.T) {
	closed := [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
	open := [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	if err := ValidateGeometry(pointBlob(4326, 1, 2)); err != nil {
		t.Errorf("valid point rejected: %v", err)
	}
	if err := ValidateGeometry(polygonBlob(4326, closed)); err != nil {
		t.Errorf("closed polygon rejected: %v", err)
	}
	if err := ValidateGeometry(polygonBlob(4326, open)); err == nil {
		t.Error("open ring accepted")
	}
	if err := ValidateGeometry(nil); err == nil {
		t.Error("null geometry accepted")
	}

	empty := append(blobHeader(4326, true), 1)
	empty = append(empty, 0, 0, 0, 0)
	if err := ValidateGeometry(empty); err == nil {
		t.Error("empty-flagged geometry accepted")
	}

	nanPoint := pointBlob(4326, math.NaN(), math.NaN())
	if err := ValidateGeometry(nanPoint); err == nil {
		t.Error("NaN point accepted")
	}
}

func TestRepairGeometryClosesRing(t *testing.T) {
	open := polygonBlob(4326, [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}})

	repaired, changed, err := RepairGeometry(open)
	if err != nil {
		t.Fatalf("RepairGeometry() error = %v", err)
	}
	if !changed {
		t.Fatal("expected repair to change the geometry")
	}
	if err := ValidateGeometry(repaired); err != nil {
		t.Errorf("repaired geometry still invalid: %v", err)
	}

	// Header must be preserved.
	h, err := ParseBlobHeader(repaired)
	if err != nil {
		t.Fatalf("header lost after repair: %v", err)
	}
	if h.SRSID != 4326 {
		t.Errorf("SRSID = %d, want 4326", h.SRSID)
	}
}

func TestRepairGeometryNoChange(t *testing.T) {
	closed := polygonBlob(4326, [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 0}})
	repaired, changed, err := RepairGeometry(closed)
	if err != nil {
		t.Fatalf("RepairGeometry() error = %v", err)
	}
	if changed {
		t.Error("closed polygon should not be changed")
	}
	if !bytes.Equal(repaired, closed) {
		t.Error("unchanged geometry should be returned as-is")
	}
}

func TestGeometryTypeCode(t *testing.T) {
	code, err := GeometryTypeCode(pointBlob(4326, 1, 2))
	if err != nil {
		t.Fatalf("GeometryTypeCode() error = %v", err)
	}
	if code != wkbPoint {
		t.Errorf("code = %d, want %d", code, wkbPoint)
	}
}
