package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/lector",
		LogDir:  "/home/user/.local/share/lector/log",
		API: APIConfig{
			BaseURL:        "https://api.example.org",
			UploadsURL:     "https://uploads.example.org",
			TimeoutSeconds: 30,
			RetryMax:       1,
			MaxPerHost:     3,
			ListLimit:      10,
		},
		Store: StoreConfig{Type: "sqlite", DataDir: "/home/user/.local/share/lector/db"},
		Archiver: ArchiverConfig{
			Workers:     4,
			JPEGQuality: 85,
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.API != original.API {
		t.Errorf("API = %+v, want %+v", got.API, original.API)
	}
	if got.Store != original.Store {
		t.Errorf("Store = %+v, want %+v", got.Store, original.Store)
	}
	if got.Archiver != original.Archiver {
		t.Errorf("Archiver = %+v, want %+v", got.Archiver, original.Archiver)
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig("/data/lector")

	if cfg.LogDir != filepath.Join("/data/lector", "log") {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/lector/log")
	}
	if cfg.API.BaseURL != "https://api.mangadex.org" {
		t.Errorf("API.BaseURL = %q, want mangadex default", cfg.API.BaseURL)
	}
	if cfg.API.UploadsURL != "https://uploads.mangadex.org" {
		t.Errorf("API.UploadsURL = %q, want uploads default", cfg.API.UploadsURL)
	}
	if cfg.API.TimeoutSeconds != 90 {
		t.Errorf("API.TimeoutSeconds = %d, want 90", cfg.API.TimeoutSeconds)
	}
	if cfg.API.ListLimit != 20 {
		t.Errorf("API.ListLimit = %d, want 20", cfg.API.ListLimit)
	}
	if cfg.Store.Type != "sqlite" {
		t.Errorf("Store.Type = %q, want sqlite", cfg.Store.Type)
	}
	if cfg.Store.DataDir != filepath.Join("/data/lector", "db") {
		t.Errorf("Store.DataDir = %q, want %q", cfg.Store.DataDir, "/data/lector/db")
	}
	if cfg.Archiver.Workers != 2 {
		t.Errorf("Archiver.Workers = %d, want 2", cfg.Archiver.Workers)
	}
	if cfg.Archiver.JPEGQuality != 70 {
		t.Errorf("Archiver.JPEGQuality = %d, want 70", cfg.Archiver.JPEGQuality)
	}
}

func TestInit_And_ReadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "lector.toml")
	cfg := NewConfig(dir)

	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got, err := ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if got.Store.DataDir != cfg.Store.DataDir {
		t.Errorf("Store.DataDir = %q, want %q", got.Store.DataDir, cfg.Store.DataDir)
	}
	if got.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("API.BaseURL = %q, want %q", got.API.BaseURL, cfg.API.BaseURL)
	}
}

func TestInit_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lector.toml")
	if err := os.WriteFile(path, []byte("base_dir = \"/tmp\"\n"), 0644); err != nil {
		t.Fatalf("writing existing file: %v", err)
	}

	if err := Init(path, NewConfig(dir)); err == nil {
		t.Fatal("Init() expected error for existing config file")
	}
}

func TestReadFromFile_Missing(t *testing.T) {
	if _, err := ReadFromFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("ReadFromFile() expected error for missing file")
	}
}
