package sanitize

import "testing"

func TestFieldRenamesDuplicates(t *testing.T) {
	fields := []string{"Nome", "nome", "NOME"}
	m := FieldRenames(fields, Snake, 0)

	want := RenameMap{
		{From: "Nome", To: "nome"},
		{From: "nome", To: "nome_1"},
		{From: "NOME", To: "nome_2"},
	}
	if len(m) != len(want) {
		t.Fatalf("got %d renames, want %d", len(m), len(want))
	}
	for i := range want {
		if m[i] != want[i] {
			t.Errorf("rename %d = %+v, want %+v", i, m[i], want[i])
		}
	}
}

func TestFieldRenamesFirstOccurrenceWins(t *testing.T) {
	m := FieldRenames([]string{"ID", "id"}, Snake, 0)

	if got, _ := m.Get("ID"); got != "id" {
		t.Errorf("ID -> %q, want %q", got, "id")
	}
	if got, _ := m.Get("id"); got != "id_1" {
		t.Errorf("id -> %q, want %q", got, "id_1")
	}
}

func TestFieldRenamesAllDistinct(t *testing.T) {
	fields := []string{"área", "area", "Área", "AREA", "ar ea", "normal"}
	m := FieldRenames(fields, Snake, 0)

	if len(m) != len(fields) {
		t.Fatalf("got %d renames, want %d", len(m), len(fields))
	}
	seen := make(map[string]bool)
	for _, r := range m {
		if seen[r.To] {
			t.Errorf("duplicate output name %q", r.To)
		}
		seen[r.To] = true
	}
}

func TestRenamerReserve(t *testing.T) {
	r := NewRenamer()
	r.Reserve("geom")
	if got := r.Resolve("geom"); got != "geom_1" {
		t.Errorf("Resolve(geom) = %q, want geom_1", got)
	}
	if got := r.Resolve("geom"); got != "geom_2" {
		t.Errorf("second Resolve(geom) = %q, want geom_2", got)
	}
}

func TestRenameMapChanged(t *testing.T) {
	m := RenameMap{
		{From: "id", To: "id"},
		{From: "Nome", To: "nome"},
	}
	changed := m.Changed()
	if len(changed) != 1 || changed[0].From != "Nome" {
		t.Errorf("Changed() = %+v, want only the Nome entry", changed)
	}
}
