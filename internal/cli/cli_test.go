package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maviz991/gpkgclean/internal/config"
	"github.com/maviz991/gpkgclean/internal/sanitize"
)

func TestCommandStructure(t *testing.T) {
	if rootCmd.Use != "gpkgclean" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "gpkgclean")
	}
	want := map[string]bool{
		"clean": false, "import": false, "list": false,
		"rename-fields": false, "export-sld": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	cfg, err := buildConfig(cleanCmd)
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if !cfg.WriteLocalGPKG || !cfg.UploadToPostGIS {
		t.Error("default stages should all be enabled")
	}
	if cfg.OutputPrefix != "limpo_" {
		t.Errorf("got output prefix %q, want limpo_", cfg.OutputPrefix)
	}
	if cfg.Invalid != config.SkipInvalid {
		t.Errorf("got invalid policy %d, want skip", cfg.Invalid)
	}
}

func TestBuildConfigFlagOverrides(t *testing.T) {
	flags := cleanCmd.Flags()
	mustSet := func(name, value string) {
		t.Helper()
		if err := flags.Set(name, value); err != nil {
			t.Fatalf("failed to set --%s: %v", name, err)
		}
	}
	mustSet("input", "mapa.gpkg")
	mustSet("prefix", "dpdu_")
	mustSet("convention", "camel")
	mustSet("no-upload", "true")
	mustSet("on-duplicate", "error")
	mustSet("invalid", "2")

	cfg, err := buildConfig(cleanCmd)
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.InputGPKG != "mapa.gpkg" || cfg.TablePrefix != "dpdu_" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Convention != sanitize.Camel {
		t.Error("convention flag not resolved")
	}
	if cfg.UploadToPostGIS {
		t.Error("--no-upload should disable the PostGIS stage")
	}
	if cfg.OnDuplicate != config.ErrorDuplicate {
		t.Error("on-duplicate flag not resolved")
	}
	if cfg.Invalid != config.AbortOnInvalid {
		t.Error("invalid policy flag not resolved")
	}
}

func TestBuildConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	content := `
input_gpkg: dados.gpkg
table_prefix: teste_
convention: camel
upload_to_postgis: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.InputGPKG != "dados.gpkg" || cfg.TablePrefix != "teste_" {
		t.Errorf("yaml values not applied: %+v", cfg)
	}
	if cfg.Convention != sanitize.Camel {
		t.Error("yaml convention not resolved")
	}
	if cfg.UploadToPostGIS {
		t.Error("yaml stage switch not applied")
	}
}

func TestBuildConfigInvalidEnum(t *testing.T) {
	if err := cleanCmd.Flags().Set("convention", "kebab"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	defer cleanCmd.Flags().Set("convention", "snake")
	if _, err := buildConfig(cleanCmd); err == nil {
		t.Fatal("expected error for unknown convention")
	}
}
