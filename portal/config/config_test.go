package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtensionAllowed(t *testing.T) {
	cfg := Default()

	for _, filename := range []string{"run.csv", "data.JSON", "archive.zip", "results.h5"} {
		if !cfg.ExtensionAllowed(filename) {
			t.Fatalf("expected '%v' to be allowed", filename)
		}
	}

	for _, filename := range []string{"payload.exe", "noextension", "script.sh"} {
		if cfg.ExtensionAllowed(filename) {
			t.Fatalf("expected '%v' to be rejected", filename)
		}
	}

	open := Config{}
	if !open.ExtensionAllowed("anything.xyz") {
		t.Fatal("empty allowed set should accept any extension")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	data := "allowed_extensions: [csv, parquet]\nmax_upload_mib: 64\n"
	if err := os.WriteFile(path, []byte(data), 0666); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.MaxUploadMib != 64 {
		t.Fatalf("expected max upload 64, got %d", cfg.MaxUploadMib)
	}
	if !cfg.ExtensionAllowed("a.parquet") || cfg.ExtensionAllowed("a.zip") {
		t.Fatal("allowed extensions not loaded from config")
	}

	defaults, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if defaults.MaxUploadMib != Default().MaxUploadMib {
		t.Fatal("empty path should return defaults")
	}
}
