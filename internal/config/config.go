// Package config loads runtime configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds every runtime setting the server needs.  Values come from
// environment variables; required ones are enforced by must() and missing
// values abort startup with a fatal log message.
type Config struct {
	Env       string // application environment (dev/test/prod)
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to sign JWTs

	AccessTTLMin int // access token time-to-live in minutes
	BcryptCost   int // bcrypt cost for password hashing

	// Seat domain settings.
	TotalSeats           int            // number of seats in the hall
	ProtectionWindowDays int            // manual protection window, 0 disables the restriction
	ReaperInterval       time.Duration  // how often expired protections are swept
	GridCacheTTL         time.Duration  // lifetime of cached month grids
	Location             *time.Location // timezone protection deadlines are computed in
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"),
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:   mustInt("BCRYPT_COST"),

		TotalSeats:           envInt("TOTAL_SEATS", 59),
		ProtectionWindowDays: envInt("PROTECTION_WINDOW_DAYS", 3),
		ReaperInterval:       envDur("REAPER_INTERVAL", time.Hour),
		GridCacheTTL:         envDur("GRID_CACHE_TTL", 30*time.Second),
		Location:             envLocation("TIMEZONE"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}

// envLocation loads an IANA timezone name, falling back to UTC when unset
// or unknown.  Deadlines like "day 3 at 23:59:59" are local concepts, so a
// deployment in another timezone sets TIMEZONE rather than shifting data.
func envLocation(key string) *time.Location {
	v := os.Getenv(key)
	if v == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		log.Printf("config: unknown timezone %q, using UTC", v)
		return time.UTC
	}
	return loc
}
