// Package config loads application configuration from environment
// variables.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration. Each field corresponds to an
// environment variable; required variables abort startup when missing.
type Config struct {
	Env          string // APP_ENV: dev, test or prod
	Port         string // APP_PORT: HTTP listen port
	DBUser       string
	DBPass       string // optional
	DBHost       string
	DBPort       string
	DBName       string
	JWTSecret    string
	AccessTTLMin int // access token lifetime in minutes
	BcryptCost   int
	TicketDir    string // directory for generated ticket artifacts
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:   mustInt("BCRYPT_COST"),
		TicketDir:    getenv("TICKET_DIR", "uploads/qrcodes"),
	}
}

func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
