package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr          string
	PostgresDSN   string
	Redis         RedisConfig
	JWTSigningKey string

	// ChurchTimezone is the IANA zone all service windows and calendar-day
	// rules are evaluated in. It is explicit configuration, never inherited
	// from the host environment.
	ChurchTimezone string

	// DeviceUsageTTL bounds how long a device-usage entry lives in the
	// shared cache. One day covers the longest service-day window.
	DeviceUsageTTL time.Duration
}

// RedisConfig holds connection settings for the shared device-usage cache.
// An empty URL means Redis is not configured and the in-process store is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// KeyNamespace prefixes every key this process writes, so several
	// deployments can share one Redis.
	KeyNamespace string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("STEEPLE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	tz := os.Getenv("CHURCH_TIMEZONE")
	if tz == "" {
		tz = "Africa/Nairobi"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:           addr,
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		Redis:          redisFromEnv(),
		JWTSigningKey:  jwtSigningKey,
		ChurchTimezone: tz,
		DeviceUsageTTL: durationEnv("DEVICE_USAGE_TTL", 24*time.Hour),
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     intEnv("REDIS_POOL_SIZE", 10),
		MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		KeyNamespace: stringEnv("REDIS_KEY_NAMESPACE", "steeple"),
	}
}

func stringEnv(key, fallback string) string {
	if raw := os.Getenv(key); raw != "" {
		return raw
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return fallback
}
