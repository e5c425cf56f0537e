package config

import (
	"os"
	"strconv"
	"time"
)

// GetEnv returns the environment variable value, or fallback when unset or
// empty. Ground: the teacher's inline
// `x := os.Getenv("X"); if x == "" { x = default }` pattern used throughout
// every cmd/*/main.go in the teacher monorepo.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvBool parses a boolean toggle env var, defaulting to fallback on
// absence or parse failure. Used for the per-enricher feature flags
// (ENABLE_FRAUD, ENABLE_NETWORK, ENABLE_SUBSCRIBER).
func GetEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// GetEnvInt parses an integer env var, defaulting to fallback on absence
// or parse failure.
func GetEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// GetEnvDuration parses a Go duration string env var (e.g. "30s"),
// defaulting to fallback on absence or parse failure.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// VaultSecretPath/VaultAddr/VaultToken return the teacher's conventional
// Vault bootstrap trio of env vars for a given stage name, e.g.
// "secret/data/cdr/ingestion". Ground: every cmd/*/main.go's
// "--- Vault Secret Loading ---" block in the teacher monorepo.
func VaultAddr() string {
	return GetEnv("VAULT_ADDR", "http://localhost:8200")
}

func VaultToken() string {
	return GetEnv("VAULT_TOKEN", "root")
}

func VaultSecretPath(stage string) string {
	return GetEnv("VAULT_SECRET_PATH", "secret/data/cdr/"+stage)
}
