package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/wgdzlh/forestgis"
)

func TestLoadConfigDefaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err = os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "info" || cfg.Filter.Field != "CD_TALHAO" || !reflect.DeepEqual(cfg.Filter.Values, []string{"011M"}) {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Composite.Samples != forestgis.DEFAULT_COMPOSITES || cfg.Composite.Seed != forestgis.DEFAULT_SEED || cfg.Reproject.EPSG != forestgis.REPROJECT_SRID {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forestgis.yaml")
	content := "log:\n  level: debug\nfilter:\n  field: TALHAO\n  values: [A1, B2]\nreproject:\n  epsg: 31982\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FORESTGIS_COMPOSITE_SAMPLES", "7")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" || cfg.Filter.Field != "TALHAO" || !reflect.DeepEqual(cfg.Filter.Values, []string{"A1", "B2"}) {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Reproject.EPSG != 31982 || cfg.Composite.Samples != 7 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
