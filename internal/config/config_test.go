package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.GenerationTimeout != 20*time.Second {
		t.Errorf("GenerationTimeout = %v, want 20s", cfg.GenerationTimeout)
	}
	if cfg.MinProfileConfidence != 0.6 {
		t.Errorf("MinProfileConfidence = %v, want 0.6", cfg.MinProfileConfidence)
	}
	if cfg.QualityPassScore != 85 {
		t.Errorf("QualityPassScore = %v, want 85", cfg.QualityPassScore)
	}
	if cfg.FeedbackCap != 1000 || cfg.OutcomeCap != 5000 {
		t.Errorf("caps = %d/%d, want 1000/5000", cfg.FeedbackCap, cfg.OutcomeCap)
	}
}

func TestGetEnvOverrides(t *testing.T) {
	t.Setenv("RESPONSE_CACHE_BACKEND", "Redis ")
	t.Setenv("ADAPTATION_CACHE_SIZE", "64")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	if cfg.ResponseCacheBackend != "redis" {
		t.Errorf("ResponseCacheBackend = %q, want redis", cfg.ResponseCacheBackend)
	}
	if cfg.AdaptationCacheSize != 64 {
		t.Errorf("AdaptationCacheSize = %d, want 64", cfg.AdaptationCacheSize)
	}
	if !cfg.RedisTLS {
		t.Error("RedisTLS should be true")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}
