package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type CodecCfg struct {
	Precision int
	Dedupe    bool
	KeepHoles bool
	Version   string
	// ReuseMaterials shares host materials between equal semantic surfaces.
	ReuseMaterials bool
}

type SessionCfg struct {
	// Driver is "memory" or "redis".
	Driver    string
	TTL       time.Duration
	CacheSize int
}

type Config struct {
	Addr           string
	LogLevel       string
	LogConsole     bool
	LogSampleN     int
	MetricsEnabled bool
	RedisAddr      string
	CacheOpTimeout time.Duration
	DocCacheSize   int
	MaxBodyBytes   int64
	Codec          CodecCfg
	Session        SessionCfg
}

func FromEnv() Config {
	precision := getint("CITYJSON_PRECISION", 3)
	if precision < 0 {
		precision = 0
	}
	if precision > 12 {
		precision = 12
	}

	driver := strings.ToLower(getenv("SESSION_DRIVER", "memory"))
	if driver != "redis" {
		driver = "memory"
	}

	return Config{
		Addr:           getenv("ADDR", ":8090"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogConsole:     getbool("LOG_CONSOLE", false),
		LogSampleN:     getint("LOG_SAMPLE_N", 0),
		MetricsEnabled: getbool("METRICS_ENABLED", true),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		DocCacheSize:   getint("DOC_CACHE_SIZE", 256),
		MaxBodyBytes:   int64(getint("MAX_BODY_BYTES", 64<<20)),
		Codec: CodecCfg{
			Precision:      precision,
			Dedupe:         getbool("CITYJSON_DEDUPE", true),
			KeepHoles:      getbool("CITYJSON_KEEP_HOLES", false),
			Version:        getenv("CITYJSON_VERSION", "1.0"),
			ReuseMaterials: getbool("CITYJSON_REUSE_MATERIALS", true),
		},
		Session: SessionCfg{
			Driver:    driver,
			TTL:       getduration("SESSION_TTL", 24*time.Hour),
			CacheSize: getint("SESSION_CACHE_SIZE", 1024),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
