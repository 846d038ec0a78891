package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Addr != ":8090" || cfg.Codec.Precision != 3 || !cfg.Codec.Dedupe || cfg.Codec.KeepHoles {
		t.Fatalf("defaults=%+v", cfg)
	}
	if cfg.Session.Driver != "memory" || cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("session=%+v", cfg.Session)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CITYJSON_PRECISION", "20")
	t.Setenv("CITYJSON_DEDUPE", "no")
	t.Setenv("CITYJSON_KEEP_HOLES", "1")
	t.Setenv("SESSION_DRIVER", "Redis")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("MAX_BODY_BYTES", "1024")
	t.Setenv("DOC_CACHE_SIZE", "not-a-number")

	cfg := FromEnv()
	if cfg.Codec.Precision != 12 {
		t.Fatalf("precision=%d want clamp to 12", cfg.Codec.Precision)
	}
	if cfg.Codec.Dedupe || !cfg.Codec.KeepHoles {
		t.Fatalf("codec=%+v", cfg.Codec)
	}
	if cfg.Session.Driver != "redis" || cfg.Session.TTL != 90*time.Minute {
		t.Fatalf("session=%+v", cfg.Session)
	}
	if cfg.MaxBodyBytes != 1024 || cfg.DocCacheSize != 256 {
		t.Fatalf("body=%d doc cache=%d", cfg.MaxBodyBytes, cfg.DocCacheSize)
	}
}

func TestFromEnv_UnknownDriverFallsBackToMemory(t *testing.T) {
	t.Setenv("SESSION_DRIVER", "etcd")
	if got := FromEnv().Session.Driver; got != "memory" {
		t.Fatalf("driver=%q want memory", got)
	}
}
