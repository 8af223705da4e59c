package gpkg

import "testing"

func TestSaveStyleUpsert(t *testing.T) {
	c := newTestContainer(t, "saida.gpkg")
	if err := c.EnsureLayerStyles(); err != nil {
		t.Fatalf("EnsureLayerStyles() error = %v", err)
	}
	// Idempotent.
	if err := c.EnsureLayerStyles(); err != nil {
		t.Fatalf("second EnsureLayerStyles() error = %v", err)
	}

	if err := c.SaveStyle("dpdu_solo", "geom", "<qml v1/>", "<sld v1/>"); err != nil {
		t.Fatalf("SaveStyle() error = %v", err)
	}
	if err := c.SaveStyle("dpdu_solo", "geom", "<qml v2/>", "<sld v2/>"); err != nil {
		t.Fatalf("second SaveStyle() error = %v", err)
	}

	var n int
	if err := c.QueryRow("SELECT COUNT(*) FROM layer_styles WHERE f_table_name = 'dpdu_solo'").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1 (upsert, not duplicate)", n)
	}

	qml, sld, ok, err := c.LoadStyle("dpdu_solo")
	if err != nil {
		t.Fatalf("LoadStyle() error = %v", err)
	}
	if !ok {
		t.Fatal("LoadStyle() ok = false")
	}
	if qml != "<qml v2/>" || sld != "<sld v2/>" {
		t.Errorf("payloads = %q, %q; want second write", qml, sld)
	}
}

func TestLoadStyleMissing(t *testing.T) {
	c := newTestContainer(t, "saida.gpkg")

	// No layer_styles table at all.
	if _, _, ok, err := c.LoadStyle("qualquer"); err != nil || ok {
		t.Errorf("LoadStyle without table = ok %v, err %v; want false, nil", ok, err)
	}

	if err := c.EnsureLayerStyles(); err != nil {
		t.Fatal(err)
	}
	if _, _, ok, err := c.LoadStyle("qualquer"); err != nil || ok {
		t.Errorf("LoadStyle without row = ok %v, err %v; want false, nil", ok, err)
	}
}
