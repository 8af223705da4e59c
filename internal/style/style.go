package style

import (
	"fmt"
	"strings"

	"github.com/maviz991/gpkgclean/internal/gpkg"
	"github.com/maviz991/gpkgclean/internal/sanitize"
)

// Payload carries the two serialized style representations of one layer,
// already rewritten to the sanitized field names.
type Payload struct {
	QML string
	SLD string
}

// Empty reports whether neither representation is present.
func (p Payload) Empty() bool {
	return p.QML == "" && p.SLD == ""
}

// Export produces the style payload for a layer: the style registered in the
// source container when there is one, otherwise a generated default for the
// layer's geometry type. Field references are rewritten per renames before
// the payload is handed to any sink.
func Export(src *gpkg.Container, layer gpkg.Layer, renames sanitize.RenameMap) (Payload, error) {
	qml, sld, found, err := src.LoadStyle(layer.Name)
	if err != nil {
		return Payload{}, err
	}
	if !found {
		p := Generate(layer)
		return p, nil
	}

	var out Payload
	if qml != "" {
		out.QML, err = RewriteFieldReferences(qml, QML, renames)
		if err != nil {
			return Payload{}, fmt.Errorf("failed to rewrite QML of %s: %w", layer.Name, err)
		}
	}
	if sld != "" {
		out.SLD, err = RewriteFieldReferences(sld, SLD, renames)
		if err != nil {
			return Payload{}, fmt.Errorf("failed to rewrite SLD of %s: %w", layer.Name, err)
		}
	}
	return out, nil
}

// Generate builds a minimal default style pair for a layer that has none
// registered. The symbolizer follows the layer's geometry class.
func Generate(layer gpkg.Layer) Payload {
	name := layer.CleanName
	if name == "" {
		name = layer.Name
	}
	return Payload{
		QML: defaultQML(),
		SLD: defaultSLD(name, layer.GeometryType),
	}
}

func defaultQML() string {
	return `<!DOCTYPE qgis PUBLIC 'http://mrcc.com/qgis.dtd' 'SYSTEM'>
<qgis styleCategories="AllStyleCategories" version="3.28">
 <renderer-v2 type="singleSymbol">
  <symbols>
   <symbol type="fill" name="0"/>
  </symbols>
 </renderer-v2>
</qgis>
`
}

func defaultSLD(name, geometryType string) string {
	symbolizer := "PolygonSymbolizer"
	switch {
	case strings.Contains(strings.ToUpper(geometryType), "POINT"):
		symbolizer = "PointSymbolizer"
	case strings.Contains(strings.ToUpper(geometryType), "LINE"):
		symbolizer = "LineSymbolizer"
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<StyledLayerDescriptor xmlns="http://www.opengis.net/sld" xmlns:ogc="http://www.opengis.net/ogc" version="1.1.0">
 <NamedLayer>
  <se:Name xmlns:se="http://www.opengis.net/se">%s</se:Name>
  <UserStyle>
   <FeatureTypeStyle>
    <Rule>
     <%s/>
    </Rule>
   </FeatureTypeStyle>
  </UserStyle>
 </NamedLayer>
</StyledLayerDescriptor>
`, name, symbolizer)
}
