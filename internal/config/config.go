package config // loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field maps to an
// environment variable.  Required variables are enforced by must() and
// missing values abort startup with a fatal log message.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// DeskQRLocationID is the location assumed for bare legacy desk
	// codes ("masa-12", "M-7") that do not carry a location of their
	// own.  Newer codes embed the location and ignore this.
	DeskQRLocationID uint64

	// Advisory break durations in minutes.  Returned to clients as a
	// countdown hint; the server never force-ends a break.
	BreakLunchMin   int
	BreakRegularMin int
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		JWTSecret:        must("JWT_SECRET"),
		AccessTTLMin:     mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:   mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:       mustInt("BCRYPT_COST"),
		DeskQRLocationID: uint64(intDefault("DESK_QR_DEFAULT_LOCATION_ID", 1)),
		BreakLunchMin:    intDefault("BREAK_LUNCH_MIN", 90),
		BreakRegularMin:  intDefault("BREAK_REGULAR_MIN", 20),
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

// mustInt is must() with integer conversion.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intDefault reads an optional integer variable with a fallback.
func intDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
