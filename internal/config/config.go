package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/hirelink/hirelink/internal/fees"
)

// Config holds everything the process needs, resolved once at startup.
// Nothing reads the environment after Load returns.
type Config struct {
	Port      string
	RedisAddr string
	JWTSecret []byte

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// FeeTiers is the progressive service-fee table. Changing it never
	// touches already-created collaborations; their amounts are frozen.
	FeeTiers []fees.Tier

	// PlatformAccountID, when set, receives the retained service fee as a
	// ledgered income entry on every escrow release.
	PlatformAccountID uuid.UUID

	// SinglePerProject restricts a project to one live collaboration.
	SinglePerProject bool

	// DependencyTimeout bounds calls to the project store and user
	// directory.
	DependencyTimeout time.Duration
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// Load reads the environment (and .env if present) into a Config. A broken
// fee tier table or malformed value fails here, at startup, never at
// request time.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		JWTSecret:         []byte(getenv("JWT_SECRET", "supersecret")),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            os.Getenv("DB_NAME"),
		FeeTiers:          fees.DefaultTiers(),
		SinglePerProject:  true,
		DependencyTimeout: 5 * time.Second,
	}

	if raw := os.Getenv("FEE_TIERS"); raw != "" {
		var tiers []fees.Tier
		if err := json.Unmarshal([]byte(raw), &tiers); err != nil {
			return nil, fmt.Errorf("config: parse FEE_TIERS: %w", err)
		}
		cfg.FeeTiers = tiers
	}
	// Validate the table now even if a later consumer builds its own engine.
	if _, err := fees.NewEngine(cfg.FeeTiers); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if raw := os.Getenv("PLATFORM_ACCOUNT_ID"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("config: parse PLATFORM_ACCOUNT_ID: %w", err)
		}
		cfg.PlatformAccountID = id
	}

	if raw := os.Getenv("SINGLE_COLLABORATION_PER_PROJECT"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("config: parse SINGLE_COLLABORATION_PER_PROJECT: %w", err)
		}
		cfg.SinglePerProject = v
	}

	if raw := os.Getenv("DEPENDENCY_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("config: parse DEPENDENCY_TIMEOUT %q", raw)
		}
		cfg.DependencyTimeout = d
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
