package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
env: prod
http_server:
  address: ":9000"
  read_timeout: 3s
storage:
  driver: sqlite
  sqlite_path: /tmp/students.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "prod" {
		t.Fatalf("expected env prod, got %s", cfg.Env)
	}
	if cfg.HTTPServer.Addr != ":9000" {
		t.Fatalf("expected address :9000, got %s", cfg.HTTPServer.Addr)
	}
	if cfg.HTTPServer.ReadTimeout != 3*time.Second {
		t.Fatalf("expected read timeout 3s, got %s", cfg.HTTPServer.ReadTimeout)
	}
	if cfg.HTTPServer.WriteTimeout != 10*time.Second {
		t.Fatalf("expected default write timeout 10s, got %s", cfg.HTTPServer.WriteTimeout)
	}
	if cfg.Storage.MongoDatabase != "student_portal" {
		t.Fatalf("expected default mongo database, got %s", cfg.Storage.MongoDatabase)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
http_server:
  address: ":9000"
storage:
  driver: sqlite
  sqlite_path: /tmp/students.db
`)
	t.Setenv("HTTP_SERVER_ADDR", ":18082")
	t.Setenv("STORAGE_DRIVER", "mongo")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPServer.Addr != ":18082" {
		t.Fatalf("expected HTTP_SERVER_ADDR override, got %s", cfg.HTTPServer.Addr)
	}
	if cfg.Storage.Driver != DriverMongo {
		t.Fatalf("expected STORAGE_DRIVER override, got %s", cfg.Storage.Driver)
	}
	if cfg.Storage.MongoURI != "mongodb://db:27017" {
		t.Fatalf("expected MONGODB_URI override, got %s", cfg.Storage.MongoURI)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		storage StorageConfig
		wantErr string
	}{
		{"sqlite ok", StorageConfig{Driver: DriverSQLite, SQLitePath: "x.db"}, ""},
		{"sqlite missing path", StorageConfig{Driver: DriverSQLite}, "sqlite_path"},
		{"postgres missing dsn", StorageConfig{Driver: DriverPostgres}, "postgres_dsn"},
		{"mongo ok", StorageConfig{Driver: DriverMongo, MongoURI: "mongodb://x"}, ""},
		{"mongo missing uri", StorageConfig{Driver: DriverMongo}, "mongo_uri"},
		{"unknown driver", StorageConfig{Driver: "redis"}, "unknown storage driver"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{Storage: tc.storage}
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
