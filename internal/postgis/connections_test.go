package postgis

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStore(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connections.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write store: %v", err)
	}
	return path
}

func TestCredentialsFromStore(t *testing.T) {
	path := writeStore(t, `
connections:
  Planejamento:
    host: db.example.org
    port: 5433
    database: planejamento
    username: dpdu
    password: secret
`)
	store, err := LoadStore(path)
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}

	creds, err := store.Credentials("Planejamento")
	if err != nil {
		t.Fatalf("Credentials failed: %v", err)
	}
	if creds.Host != "db.example.org" || creds.Port != 5433 {
		t.Errorf("got host %s:%d, want db.example.org:5433", creds.Host, creds.Port)
	}
	if creds.Database != "planejamento" || creds.User != "dpdu" || creds.Password != "secret" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
	if creds.SSLMode != "disable" {
		t.Errorf("got sslmode %q, want disable default", creds.SSLMode)
	}
}

func TestCredentialsDefaults(t *testing.T) {
	path := writeStore(t, `
connections:
  local:
    database: gis
    username: u
    password: p
`)
	store, err := LoadStore(path)
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}
	creds, err := store.Credentials("local")
	if err != nil {
		t.Fatalf("Credentials failed: %v", err)
	}
	if creds.Host != "localhost" || creds.Port != 5432 {
		t.Errorf("got %s:%d, want localhost:5432", creds.Host, creds.Port)
	}
}

func TestCredentialsUnknownConnection(t *testing.T) {
	path := writeStore(t, "connections: {}\n")
	store, err := LoadStore(path)
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}
	if _, err := store.Credentials("nope"); err == nil {
		t.Fatal("expected error for unknown connection")
	}
}

func TestCredentialsMissingDatabase(t *testing.T) {
	path := writeStore(t, `
connections:
  broken:
    host: localhost
    username: u
    password: p
`)
	store, err := LoadStore(path)
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}
	_, err = store.Credentials("broken")
	if err == nil || !strings.Contains(err.Error(), "no database name") {
		t.Fatalf("expected missing database error, got %v", err)
	}
}

func TestCredentialsAuthFileFallback(t *testing.T) {
	dir := t.TempDir()
	authFile := filepath.Join(dir, "auth.env")
	env := "PGUSER=fallback_user\nPGPASSWORD=fallback_pass\n"
	if err := os.WriteFile(authFile, []byte(env), 0600); err != nil {
		t.Fatalf("failed to write auth file: %v", err)
	}

	path := writeStore(t, `
connections:
  prod:
    host: db
    database: gis
    auth_file: `+authFile+`
`)
	store, err := LoadStore(path)
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}
	creds, err := store.Credentials("prod")
	if err != nil {
		t.Fatalf("Credentials failed: %v", err)
	}
	if creds.User != "fallback_user" || creds.Password != "fallback_pass" {
		t.Errorf("auth file fallback not applied: %+v", creds)
	}
}

func TestLoadStoreMissingFile(t *testing.T) {
	if _, err := LoadStore(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing connections file")
	}
}
