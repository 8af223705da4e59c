package style

import (
	"strings"
	"testing"

	"github.com/maviz991/gpkgclean/internal/sanitize"
)

var renames = sanitize.RenameMap{
	{From: "Nome", To: "nome"},
	{From: "Área km²", To: "area_km"},
	{From: "id", To: "id"}, // unchanged, must not trigger any rewrite
}

func TestRewriteQMLFieldAttribute(t *testing.T) {
	doc := `<qgis><categorizedSymbol field="Nome" type="categorized"/></qgis>`
	got, err := RewriteFieldReferences(doc, QML, renames)
	if err != nil {
		t.Fatalf("RewriteFieldReferences() error = %v", err)
	}
	if !strings.Contains(got, `field="nome"`) {
		t.Errorf("field attribute not rewritten: %s", got)
	}
	if strings.Contains(got, `field="Nome"`) {
		t.Errorf("old field reference survived: %s", got)
	}
}

func TestRewriteQMLFieldElement(t *testing.T) {
	doc := `<qgis><fieldConfiguration><field name="Área km²" configurationFlags="None"/></fieldConfiguration></qgis>`
	got, err := RewriteFieldReferences(doc, QML, renames)
	if err != nil {
		t.Fatalf("RewriteFieldReferences() error = %v", err)
	}
	if !strings.Contains(got, `name="area_km"`) {
		t.Errorf("field element name not rewritten: %s", got)
	}
}

func TestRewriteQMLElementText(t *testing.T) {
	doc := `<qgis><prop>Nome</prop></qgis>`
	got, err := RewriteFieldReferences(doc, QML, renames)
	if err != nil {
		t.Fatalf("RewriteFieldReferences() error = %v", err)
	}
	if !strings.Contains(got, ">nome<") {
		t.Errorf("element text not rewritten: %s", got)
	}
}

func TestRewriteLeavesSubstringsAlone(t *testing.T) {
	// "Nome" appears inside unrelated text and an unrelated attribute; a
	// substring replace would corrupt both.
	doc := `<qgis><label text="Nome do bairro"/><prop>Nome completo</prop><other name="Nome"/></qgis>`
	got, err := RewriteFieldReferences(doc, QML, renames)
	if err != nil {
		t.Fatalf("RewriteFieldReferences() error = %v", err)
	}
	if !strings.Contains(got, "Nome do bairro") {
		t.Errorf("unrelated attribute text rewritten: %s", got)
	}
	if !strings.Contains(got, "Nome completo") {
		t.Errorf("unrelated element text rewritten: %s", got)
	}
	if !strings.Contains(got, `<other name="Nome">`) && !strings.Contains(got, `<other name="Nome"/>`) {
		t.Errorf("name attribute outside a field element rewritten: %s", got)
	}
}

func TestRewriteSLDPropertyName(t *testing.T) {
	doc := `<StyledLayerDescriptor xmlns:ogc="http://www.opengis.net/ogc">` +
		`<ogc:Filter><ogc:PropertyName>Nome</ogc:PropertyName>` +
		`<ogc:Literal>Nome</ogc:Literal></ogc:Filter></StyledLayerDescriptor>`
	got, err := RewriteFieldReferences(doc, SLD, renames)
	if err != nil {
		t.Fatalf("RewriteFieldReferences() error = %v", err)
	}
	if !strings.Contains(got, `<ogc:PropertyName>nome</ogc:PropertyName>`) {
		t.Errorf("PropertyName not rewritten: %s", got)
	}
	if !strings.Contains(got, `<ogc:Literal>Nome</ogc:Literal>`) {
		t.Errorf("Literal text must not be rewritten in SLD: %s", got)
	}
	if !strings.Contains(got, `xmlns:ogc="http://www.opengis.net/ogc"`) {
		t.Errorf("namespace declaration mangled: %s", got)
	}
}

func TestRewriteNoChangesNeeded(t *testing.T) {
	doc := `<qgis><prop>algo</prop></qgis>`
	got, err := RewriteFieldReferences(doc, QML, sanitize.RenameMap{{From: "id", To: "id"}})
	if err != nil {
		t.Fatalf("RewriteFieldReferences() error = %v", err)
	}
	if got != doc {
		t.Errorf("document with no applicable renames changed: %q", got)
	}
}

func TestRewriteEmptyDoc(t *testing.T) {
	got, err := RewriteFieldReferences("", QML, renames)
	if err != nil || got != "" {
		t.Errorf("empty doc: got %q, %v", got, err)
	}
}

func TestRewriteRoundTrip(t *testing.T) {
	// After rewriting, every recognized marker carries the new name and no
	// recognized marker still carries the old one.
	doc := `<qgis>` +
		`<renderer field="Nome"/>` +
		`<field name="Nome"/>` +
		`<col>Nome</col>` +
		`</qgis>`
	got, err := RewriteFieldReferences(doc, QML, renames)
	if err != nil {
		t.Fatalf("RewriteFieldReferences() error = %v", err)
	}
	for _, marker := range []string{`field="nome"`, `name="nome"`, `>nome<`} {
		if !strings.Contains(got, marker) {
			t.Errorf("missing marker %q in %s", marker, got)
		}
	}
	for _, marker := range []string{`field="Nome"`, `name="Nome"`, `>Nome<`} {
		if strings.Contains(got, marker) {
			t.Errorf("stale marker %q in %s", marker, got)
		}
	}
}
