package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("FEATURE_LAYOUT", "")
	cfg := Load()
	if cfg.ServerPort != "8090" {
		t.Fatalf("expected default port 8090, got %s", cfg.ServerPort)
	}
	if cfg.FeatureLayout != "onehot-v2" {
		t.Fatalf("expected default layout onehot-v2, got %s", cfg.FeatureLayout)
	}
	if cfg.AssessmentCacheTTL != 10*time.Minute {
		t.Fatalf("unexpected cache ttl %s", cfg.AssessmentCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("PERSIST_ASSESSMENTS", "false")
	t.Setenv("ASSESSMENT_CACHE_TTL", "30s")
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")

	cfg := Load()
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.PersistAssessments {
		t.Fatal("expected persistence disabled")
	}
	if cfg.AssessmentCacheTTL != 30*time.Second {
		t.Fatalf("unexpected cache ttl %s", cfg.AssessmentCacheTTL)
	}
	if cfg.RateLimitRPS != 50 {
		t.Fatalf("expected fallback rps 50, got %d", cfg.RateLimitRPS)
	}
}
