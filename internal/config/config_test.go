package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// memBackend is an in-memory ConfigBackend.
type memBackend struct {
	strings map[string]string
	ints    map[string]int
}

func newMemBackend() *memBackend {
	return &memBackend{strings: map[string]string{}, ints: map[string]int{}}
}

func (m *memBackend) GetString(key string) (string, bool, error) {
	v, ok := m.strings[key]
	return v, ok, nil
}

func (m *memBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.ints[key]
	return v, ok, nil
}

func (m *memBackend) SetString(key, val string) error { m.strings[key] = val; return nil }
func (m *memBackend) SetInt(key string, val int) error  { m.ints[key] = val; return nil }
func (m *memBackend) Delete(key string) error {
	delete(m.strings, key)
	delete(m.ints, key)
	return nil
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
		os.Unsetenv(s.env)
	}
}

// TestDefaults verifies all default values are applied when nothing is configured.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMemBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:8000" {
		t.Errorf("Server.Addr() = %q, want 127.0.0.1:8000", cfg.Server.Addr())
	}
	if cfg.Server.BaseURL() != "http://127.0.0.1:8000" {
		t.Errorf("Server.BaseURL() = %q", cfg.Server.BaseURL())
	}
	want := []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	if diff := cmp.Diff(want, cfg.CORS.AllowedOrigins); diff != "" {
		t.Errorf("CORS.AllowedOrigins mismatch (-want +got):\n%s", diff)
	}
	if cfg.Catalog.Path != "" {
		t.Errorf("Catalog.Path = %q, want empty", cfg.Catalog.Path)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

// TestBackendValues verifies values stored in the backend replace defaults.
func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newMemBackend()
	b.ints["server.port"] = 9000
	b.strings["server.host"] = "0.0.0.0"
	b.strings["cors.allowed_origins"] = "https://game.example, ,https://beta.example"
	b.strings["catalog.path"] = "/etc/silence/incidents.yaml"

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:9000" {
		t.Errorf("Server.Addr() = %q", cfg.Server.Addr())
	}
	want := []string{"https://game.example", "https://beta.example"}
	if diff := cmp.Diff(want, cfg.CORS.AllowedOrigins); diff != "" {
		t.Errorf("CORS.AllowedOrigins mismatch (-want +got):\n%s", diff)
	}
	if cfg.Catalog.Path != "/etc/silence/incidents.yaml" {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
}

// TestEnvOverride verifies that environment variables override backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	b := newMemBackend()
	b.ints["server.port"] = 9000
	b.strings["log.level"] = "warn"

	t.Setenv("SILENCE_SERVER_PORT", "9100")
	t.Setenv("SILENCE_LOG_LEVEL", "debug")
	t.Setenv("SILENCE_CORS_ALLOWED_ORIGINS", "*")

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if diff := cmp.Diff([]string{"*"}, cfg.CORS.AllowedOrigins); diff != "" {
		t.Errorf("CORS.AllowedOrigins mismatch (-want +got):\n%s", diff)
	}
}

// TestInvalidEnvInt verifies a malformed integer is ignored with a warning.
func TestInvalidEnvInt(t *testing.T) {
	clearEnv(t)
	t.Setenv("SILENCE_SERVER_PORT", "eighty")

	cfg, err := loadWith(newMemBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want default 8000", cfg.Server.Port)
	}
}

// TestPortOutOfRange verifies Load rejects ports outside 1..65535.
func TestPortOutOfRange(t *testing.T) {
	clearEnv(t)
	t.Setenv("SILENCE_SERVER_PORT", "70000")

	_, err := loadWith(newMemBackend())
	if err == nil {
		t.Fatal("expected error for out-of-range port")
	}
	if !strings.Contains(err.Error(), "server.port") {
		t.Errorf("error = %q, want it to mention server.port", err)
	}
}

// TestFileBackend verifies values round-trip through the JSON file.
func TestFileBackend(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "silence", "config.json")

	b := newFileBackend(path)
	if err := setKey(b, "server.port", "8123"); err != nil {
		t.Fatalf("setKey: %v", err)
	}
	if err := setKey(b, "log.format", "json"); err != nil {
		t.Fatalf("setKey: %v", err)
	}

	cfg, err := loadWith(newFileBackend(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("Server.Port = %d, want 8123", cfg.Server.Port)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
}

// TestFileBackend_JSONArray verifies a hand-written origin array is accepted.
func TestFileBackend_JSONArray(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"cors.allowed_origins": ["https://a.example", "https://b.example"], "server.port": 8200}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadWith(newFileBackend(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if diff := cmp.Diff(want, cfg.CORS.AllowedOrigins); diff != "" {
		t.Errorf("CORS.AllowedOrigins mismatch (-want +got):\n%s", diff)
	}
	if cfg.Server.Port != 8200 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
}

func TestSetKey_Errors(t *testing.T) {
	b := newMemBackend()
	if err := setKey(b, "server.port", "abc"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKey(b, "no.such.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestShowAllAndValidKeys(t *testing.T) {
	cfg := defaults()
	infos := ShowAll(cfg)
	if len(infos) != len(ValidKeys()) {
		t.Fatalf("ShowAll returned %d keys, ValidKeys %d", len(infos), len(ValidKeys()))
	}
	got := map[string]string{}
	for _, k := range infos {
		got[k.Key] = k.Value
	}
	if got["server.port"] != "8000" {
		t.Errorf("server.port = %q", got["server.port"])
	}
	if got["cors.allowed_origins"] != "http://localhost:5173,http://127.0.0.1:5173" {
		t.Errorf("cors.allowed_origins = %q", got["cors.allowed_origins"])
	}
}

// TestLoadDotEnv verifies .env fills unset variables without overriding set ones.
func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SILENCE_SERVER_HOST", "10.0.0.1")

	path := filepath.Join(t.TempDir(), ".env")
	content := "SILENCE_LOG_LEVEL=debug\nSILENCE_SERVER_HOST=0.0.0.0\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if got := os.Getenv("SILENCE_LOG_LEVEL"); got != "debug" {
		t.Errorf("SILENCE_LOG_LEVEL = %q, want debug", got)
	}
	if got := os.Getenv("SILENCE_SERVER_HOST"); got != "10.0.0.1" {
		t.Errorf("SILENCE_SERVER_HOST = %q, want process value kept", got)
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env should be ignored, got %v", err)
	}
}
