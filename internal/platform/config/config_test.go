package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Addr != ":9999" {
		t.Errorf("Addr: got %q", cfg.Addr)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "json" {
		t.Errorf("log defaults: level=%v format=%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.BaseURL != "http://localhost:9999" {
		t.Errorf("BaseURL: got %q", cfg.BaseURL)
	}
	if cfg.JWTIssuer != "shortly" || cfg.JWTTTL != 12*time.Hour {
		t.Errorf("jwt defaults: issuer=%q ttl=%v", cfg.JWTIssuer, cfg.JWTTTL)
	}
	if !cfg.MigrateOnStart {
		t.Error("MigrateOnStart should default to true")
	}
	if !cfg.CacheEnabled || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("cache defaults: enabled=%v addr=%q", cfg.CacheEnabled, cfg.RedisAddr)
	}
	if !cfg.BloomEnabled || cfg.BloomExpected != 1_000_000 || cfg.BloomFalsePosRat != 0.01 {
		t.Errorf("bloom defaults: %v %d %v", cfg.BloomEnabled, cfg.BloomExpected, cfg.BloomFalsePosRat)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BASE_URL", "https://sho.rt/") // 末尾斜杠要剥掉
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("BLOOM_EXPECTED", "5000")
	t.Setenv("BLOOM_FP_RATE", "0.05")

	cfg := Load()

	if cfg.Addr != ":8080" {
		t.Errorf("Addr: got %q", cfg.Addr)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: got %v", cfg.LogLevel)
	}
	if cfg.BaseURL != "https://sho.rt" {
		t.Errorf("BaseURL: got %q", cfg.BaseURL)
	}
	if cfg.JWTSecret != "env-secret" || cfg.JWTTTL != 30*time.Minute {
		t.Errorf("jwt: secret=%q ttl=%v", cfg.JWTSecret, cfg.JWTTTL)
	}
	if cfg.MigrateOnStart {
		t.Error("MigrateOnStart should be false")
	}
	if cfg.CacheEnabled {
		t.Error("CacheEnabled should be false")
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB: got %d", cfg.RedisDB)
	}
	if cfg.BloomExpected != 5000 || cfg.BloomFalsePosRat != 0.05 {
		t.Errorf("bloom: %d %v", cfg.BloomExpected, cfg.BloomFalsePosRat)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("JWT_TTL", "soon")
	t.Setenv("REDIS_DB", "-1")
	t.Setenv("BLOOM_FP_RATE", "2.0")
	t.Setenv("LOG_LEVEL", "verbose")

	cfg := Load()

	if cfg.JWTTTL != 12*time.Hour {
		t.Errorf("JWTTTL: got %v, want default", cfg.JWTTTL)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB: got %d, want default", cfg.RedisDB)
	}
	if cfg.BloomFalsePosRat != 0.01 {
		t.Errorf("BloomFalsePosRat: got %v, want default", cfg.BloomFalsePosRat)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: got %v, want info fallback", cfg.LogLevel)
	}
}
