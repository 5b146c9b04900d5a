package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Postgres  PostgresConfig  `json:"postgres"`
	Redis     RedisConfig     `json:"redis"`
	JWT       JWTConfig       `json:"jwt"`
	Admission AdmissionConfig `json:"admission"`
	Batch     BatchConfig     `json:"batch"`
	Ledger    LedgerConfig    `json:"ledger"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type JWTConfig struct {
	Secret      string `json:"secret"`
	ExpiryHours int    `json:"expiry_hours"`
}

type AdmissionConfig struct {
	// Paths that never touch counters (health, metrics)
	SkipPaths       []string `json:"skip_paths"`
	CacheTTLSeconds int      `json:"cache_ttl_seconds"`
	CacheMaxEntries int      `json:"cache_max_entries"`
}

type BatchConfig struct {
	Threshold            int `json:"threshold"`
	ClaimTimeoutMinutes  int `json:"claim_timeout_minutes"`
	RetentionHours       int `json:"retention_hours"`
	SweepIntervalSeconds int `json:"sweep_interval_seconds"`
}

type LedgerConfig struct {
	BaseURL              string `json:"base_url"`
	APIKey               string `json:"api_key"`
	TimeoutSeconds       int    `json:"timeout_seconds"`
	BreakerMaxFailures   int    `json:"breaker_max_failures"`
	BreakerOpenSeconds   int    `json:"breaker_open_seconds"`
	ProbeIntervalSeconds int    `json:"probe_interval_seconds"`
}

func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	config.applyEnv()
	config.applyDefaults()

	return &config, nil
}

// applyEnv lets the environment override secrets and endpoints so the
// json file stays committable.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.Redis.Port = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("LEDGER_BASE_URL"); v != "" {
		c.Ledger.BaseURL = v
	}
	if v := os.Getenv("LEDGER_API_KEY"); v != "" {
		c.Ledger.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == "" {
		c.Redis.Port = "6379"
	}
	if c.JWT.ExpiryHours <= 0 {
		c.JWT.ExpiryHours = 24
	}
	if c.Admission.CacheTTLSeconds <= 0 {
		c.Admission.CacheTTLSeconds = 300
	}
	if c.Admission.CacheMaxEntries <= 0 {
		c.Admission.CacheMaxEntries = 10000
	}
	if len(c.Admission.SkipPaths) == 0 {
		c.Admission.SkipPaths = []string{"/health", "/admin/status"}
	}
	if c.Batch.Threshold <= 0 {
		c.Batch.Threshold = 20
	}
	if c.Batch.ClaimTimeoutMinutes <= 0 {
		c.Batch.ClaimTimeoutMinutes = 10
	}
	if c.Batch.RetentionHours <= 0 {
		c.Batch.RetentionHours = 24
	}
	if c.Batch.SweepIntervalSeconds <= 0 {
		c.Batch.SweepIntervalSeconds = 60
	}
	if c.Ledger.TimeoutSeconds <= 0 {
		c.Ledger.TimeoutSeconds = 30
	}
	if c.Ledger.BreakerMaxFailures <= 0 {
		c.Ledger.BreakerMaxFailures = 5
	}
	if c.Ledger.BreakerOpenSeconds <= 0 {
		c.Ledger.BreakerOpenSeconds = 30
	}
	if c.Ledger.ProbeIntervalSeconds <= 0 {
		c.Ledger.ProbeIntervalSeconds = 30
	}
}
