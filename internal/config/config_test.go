package config

import "testing"

func TestFirstNonEmpty(t *testing.T) {
	if v := firstNonEmpty("", "foo", "bar"); v != "foo" {
		t.Fatalf("expected 'foo', got %q", v)
	}
	if v := firstNonEmpty(); v != "" {
		t.Fatalf("expected empty, got %q", v)
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("EMBEDDING_API_URL", "http://localhost:9000")
	t.Setenv("EMBEDDING_MODEL", "text-embedding-3-small")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/relrag")
	t.Setenv("EMBEDDING_API_URL", "http://localhost:9000")
	t.Setenv("EMBEDDING_MODEL", "text-embedding-3-small")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DB_POOL_MAX_CONNS", "")
	t.Setenv("EMBEDDING_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default HTTP_ADDR :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPoolMaxConns != 10 {
		t.Fatalf("expected default pool size 10, got %d", cfg.DBPoolMaxConns)
	}
	if cfg.EmbeddingTimeoutSeconds != 30 {
		t.Fatalf("expected default embedding timeout 30, got %d", cfg.EmbeddingTimeoutSeconds)
	}
}

func TestLoad_ParsesCORSOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/relrag")
	t.Setenv("EMBEDDING_API_URL", "http://localhost:9000")
	t.Setenv("EMBEDDING_MODEL", "text-embedding-3-small")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example" || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
}
