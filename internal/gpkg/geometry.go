package gpkg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// WKB base geometry type codes.
const (
	wkbPoint              = 1
	wkbLineString         = 2
	wkbPolygon            = 3
	wkbMultiPoint         = 4
	wkbMultiLineString    = 5
	wkbMultiPolygon       = 6
	wkbGeometryCollection = 7
)

// geomTypeNames maps WKB base codes to display labels. Codes outside the
// table get a generic fallback via GeometryTypeName.
var geomTypeNames = map[uint32]string{
	wkbPoint:              "Point",
	wkbLineString:         "LineString",
	wkbPolygon:            "Polygon",
	wkbMultiPoint:         "MultiPoint",
	wkbMultiLineString:    "MultiLineString",
	wkbMultiPolygon:       "MultiPolygon",
	wkbGeometryCollection: "GeometryCollection",
}

// GeometryTypeName returns a human-readable label for a WKB type code,
// including the Z/M dimension suffix ("MultiPolygonZ"). Unknown codes fall
// back to a generic display form.
func GeometryTypeName(code uint32) string {
	base := code % 1000
	name, ok := geomTypeNames[base]
	if !ok {
		return fmt.Sprintf("Geometry%d", code)
	}
	switch code / 1000 {
	case 1:
		return name + "Z"
	case 2:
		return name + "M"
	case 3:
		return name + "ZM"
	}
	return name
}

// BlobHeader is the fixed GeoPackage prefix of a stored geometry.
type BlobHeader struct {
	SRSID      int32
	Empty      bool
	HeaderSize int // offset of the WKB payload inside the blob
}

// ParseBlobHeader decodes the GeoPackage binary header ("GP" magic, flags,
// srs id, optional envelope) and reports where the WKB starts.
func ParseBlobHeader(blob []byte) (BlobHeader, error) {
	var h BlobHeader
	if len(blob) < 8 {
		return h, fmt.Errorf("geometry blob too short: %d bytes", len(blob))
	}
	if blob[0] != 'G' || blob[1] != 'P' {
		return h, fmt.Errorf("geometry blob missing GP magic")
	}
	flags := blob[3]

	order := binary.ByteOrder(binary.BigEndian)
	if flags&0x01 != 0 {
		order = binary.LittleEndian
	}
	h.SRSID = int32(order.Uint32(blob[4:8]))
	h.Empty = flags&0x10 != 0

	var envelopeSize int
	switch (flags >> 1) & 0x07 {
	case 0:
		envelopeSize = 0
	case 1:
		envelopeSize = 32
	case 2, 3:
		envelopeSize = 48
	case 4:
		envelopeSize = 64
	default:
		return h, fmt.Errorf("invalid envelope indicator in geometry blob")
	}
	h.HeaderSize = 8 + envelopeSize
	if len(blob) < h.HeaderSize {
		return h, fmt.Errorf("geometry blob shorter than its envelope")
	}
	return h, nil
}

// geometry is a decoded WKB tree. Only the structure needed for validation
// and ring repair is kept; coordinates stay as flat float64 runs.
type geometry struct {
	typeCode uint32
	dim      int
	point    []float64
	lines    [][]float64 // LineString points or Polygon rings, flat coords
	children []*geometry // Multi* / GeometryCollection members
}

func wkbDim(code uint32) int {
	switch code / 1000 {
	case 1, 2:
		return 3
	case 3:
		return 4
	}
	return 2
}

type wkbReader struct {
	buf []byte
	pos int
}

func (r *wkbReader) remaining() int { return len(r.buf) - r.pos }

func (r *wkbReader) geom() (*geometry, error) {
	if r.remaining() < 5 {
		return nil, fmt.Errorf("truncated WKB geometry")
	}
	var order binary.ByteOrder = binary.BigEndian
	if r.buf[r.pos] == 1 {
		order = binary.LittleEndian
	}
	code := order.Uint32(r.buf[r.pos+1 : r.pos+5])
	r.pos += 5

	g := &geometry{typeCode: code, dim: wkbDim(code)}
	switch code % 1000 {
	case wkbPoint:
		pt, err := r.coords(order, 1, g.dim)
		if err != nil {
			return nil, err
		}
		g.point = pt
	case wkbLineString:
		line, err := r.lineString(order, g.dim)
		if err != nil {
			return nil, err
		}
		g.lines = [][]float64{line}
	case wkbPolygon:
		n, err := r.count(order)
		if err != nil {
			return nil, err
		}
		for i := uint32(0); i < n; i++ {
			ring, err := r.lineString(order, g.dim)
			if err != nil {
				return nil, err
			}
			g.lines = append(g.lines, ring)
		}
	case wkbMultiPoint, wkbMultiLineString, wkbMultiPolygon, wkbGeometryCollection:
		n, err := r.count(order)
		if err != nil {
			return nil, err
		}
		for i := uint32(0); i < n; i++ {
			child, err := r.geom()
			if err != nil {
				return nil, err
			}
			g.children = append(g.children, child)
		}
	default:
		return nil, fmt.Errorf("unsupported WKB geometry type %d", code)
	}
	return g, nil
}

func (r *wkbReader) count(order binary.ByteOrder) (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("truncated WKB count")
	}
	n := order.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return n, nil
}

func (r *wkbReader) lineString(order binary.ByteOrder, dim int) ([]float64, error) {
	n, err := r.count(order)
	if err != nil {
		return nil, err
	}
	return r.coords(order, int(n), dim)
}

func (r *wkbReader) coords(order binary.ByteOrder, n, dim int) ([]float64, error) {
	total := n * dim
	if r.remaining() < total*8 {
		return nil, fmt.Errorf("truncated WKB coordinates")
	}
	out := make([]float64, total)
	for i := 0; i < total; i++ {
		out[i] = math.Float64frombits(order.Uint64(r.buf[r.pos : r.pos+8]))
		r.pos += 8
	}
	return out, nil
}

// encode re-serializes the geometry tree as little-endian WKB.
func (g *geometry) encode(w *bytes.Buffer) {
	w.WriteByte(1)
	var scratch [8]byte
	put32 := func(v uint32) {
		binary.LittleEndian.PutUint32(scratch[:4], v)
		w.Write(scratch[:4])
	}
	put32(g.typeCode)
	writeCoords := func(coords []float64) {
		for _, c := range coords {
			binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(c))
			w.Write(scratch[:])
		}
	}

	switch g.typeCode % 1000 {
	case wkbPoint:
		writeCoords(g.point)
	case wkbLineString:
		put32(uint32(len(g.lines[0]) / g.dim))
		writeCoords(g.lines[0])
	case wkbPolygon:
		put32(uint32(len(g.lines)))
		for _, ring := range g.lines {
			put32(uint32(len(ring) / g.dim))
			writeCoords(ring)
		}
	default:
		put32(uint32(len(g.children)))
		for _, child := range g.children {
			child.encode(w)
		}
	}
}

// isEmpty reports whether the geometry carries no coordinates at all.
func (g *geometry) isEmpty() bool {
	switch g.typeCode % 1000 {
	case wkbPoint:
		if len(g.point) == 0 {
			return true
		}
		for _, c := range g.point {
			if !math.IsNaN(c) {
				return false
			}
		}
		return true
	case wkbLineString, wkbPolygon:
		for _, line := range g.lines {
			if len(line) > 0 {
				return false
			}
		}
		return true
	default:
		for _, child := range g.children {
			if !child.isEmpty() {
				return false
			}
		}
		return true
	}
}

// validate checks structural validity: rings closed with at least 4 points,
// line strings with at least 2 points.
func (g *geometry) validate() error {
	switch g.typeCode % 1000 {
	case wkbPoint:
	case wkbLineString:
		for _, line := range g.lines {
			if n := len(line) / g.dim; n > 0 && n < 2 {
				return fmt.Errorf("line string with %d point", n)
			}
		}
	case wkbPolygon:
		for i, ring := range g.lines {
			n := len(ring) / g.dim
			if n == 0 {
				continue
			}
			if n < 4 {
				return fmt.Errorf("polygon ring %d has %d points, need 4", i, n)
			}
			if !ringClosed(ring, g.dim) {
				return fmt.Errorf("polygon ring %d is not closed", i)
			}
		}
	default:
		for _, child := range g.children {
			if err := child.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// repair closes unclosed polygon rings by appending the first vertex.
// Returns whether anything changed.
func (g *geometry) repair() bool {
	changed := false
	switch g.typeCode % 1000 {
	case wkbPolygon:
		for i, ring := range g.lines {
			n := len(ring) / g.dim
			if n >= 3 && !ringClosed(ring, g.dim) {
				g.lines[i] = append(ring, ring[:g.dim]...)
				changed = true
			}
		}
	case wkbMultiPoint, wkbMultiLineString, wkbMultiPolygon, wkbGeometryCollection:
		for _, child := range g.children {
			if child.repair() {
				changed = true
			}
		}
	}
	return changed
}

func ringClosed(ring []float64, dim int) bool {
	n := len(ring) / dim
	if n < 2 {
		return false
	}
	first := ring[:dim]
	last := ring[(n-1)*dim:]
	for i := 0; i < dim; i++ {
		if first[i] != last[i] {
			return false
		}
	}
	return true
}

// ValidateGeometry checks a GeoPackage geometry blob for structural
// validity. Empty geometries are reported as invalid so the import policy
// can decide what to do with them.
func ValidateGeometry(blob []byte) error {
	if len(blob) == 0 {
		return fmt.Errorf("null geometry")
	}
	h, err := ParseBlobHeader(blob)
	if err != nil {
		return err
	}
	if h.Empty {
		return fmt.Errorf("empty geometry")
	}
	r := &wkbReader{buf: blob[h.HeaderSize:]}
	g, err := r.geom()
	if err != nil {
		return err
	}
	if g.isEmpty() {
		return fmt.Errorf("empty geometry")
	}
	return g.validate()
}

// RepairGeometry applies structural fixes to a GeoPackage geometry blob
// (currently: closing unclosed polygon rings). The header is preserved;
// the WKB payload is re-serialized only when something changed.
func RepairGeometry(blob []byte) ([]byte, bool, error) {
	h, err := ParseBlobHeader(blob)
	if err != nil {
		return nil, false, err
	}
	if h.Empty {
		return blob, false, nil
	}
	r := &wkbReader{buf: blob[h.HeaderSize:]}
	g, err := r.geom()
	if err != nil {
		return nil, false, err
	}
	if !g.repair() {
		return blob, false, nil
	}
	var buf bytes.Buffer
	buf.Write(blob[:h.HeaderSize])
	g.encode(&buf)
	return buf.Bytes(), true, nil
}

// GeometryTypeCode returns the WKB type code of a geometry blob.
func GeometryTypeCode(blob []byte) (uint32, error) {
	h, err := ParseBlobHeader(blob)
	if err != nil {
		return 0, err
	}
	wkb := blob[h.HeaderSize:]
	if len(wkb) < 5 {
		return 0, fmt.Errorf("truncated WKB geometry")
	}
	var order binary.ByteOrder = binary.BigEndian
	if wkb[0] == 1 {
		order = binary.LittleEndian
	}
	return order.Uint32(wkb[1:5]), nil
}
