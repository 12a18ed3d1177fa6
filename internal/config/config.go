package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction = "production"

	DriverMongo  = "mongo"
	DriverMemory = "memory"

	// devJWTSecret is only ever used outside production.
	devJWTSecret = "mysecretsshhhhh"
)

// ErrMissingJWTSecret is returned when production runs without JWT_SECRET
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in production")

type Config struct {
	ServerPort  string
	Environment string

	DBDriver      string
	MongoURI      string
	MongoDatabase string

	JWTSecret   string
	TokenMaxAge time.Duration

	ClientDistDir string
	CORSOrigins   []string

	LogLevel    string
	DebugErrors bool

	RedisURL string

	GoogleBooksURL    string
	GoogleBooksAPIKey string

	AuthRateLimit     float64
	TrustProxyHeaders bool
}

// IsProduction reports whether the client bundle should be served
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	environment := getEnv("ENVIRONMENT", "development")

	tokenMaxAge, err := strconv.Atoi(os.Getenv("TOKEN_MAX_AGE"))
	if err != nil || tokenMaxAge <= 0 {
		tokenMaxAge = 7200
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if environment == EnvProduction {
			return nil, ErrMissingJWTSecret
		}
		slog.Warn("JWT_SECRET not set, using development fallback secret")
		jwtSecret = devJWTSecret
	}

	debugErrors := environment != EnvProduction
	if v, err := strconv.ParseBool(os.Getenv("DEBUG_ERRORS")); err == nil && environment != EnvProduction {
		debugErrors = v
	}

	authRateLimit, err := strconv.ParseFloat(os.Getenv("AUTH_RATE_LIMIT"), 64)
	if err != nil || authRateLimit <= 0 {
		authRateLimit = 5
	}

	trustProxy, _ := strconv.ParseBool(os.Getenv("TRUST_PROXY_HEADERS"))

	driver := strings.ToLower(getEnv("DB_DRIVER", DriverMongo))
	if driver != DriverMongo && driver != DriverMemory {
		return nil, errors.New("DB_DRIVER must be mongo or memory")
	}

	return &Config{
		ServerPort:  getEnv("PORT", "3001"),
		Environment: environment,

		DBDriver:      driver,
		MongoURI:      getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "googlebooks"),

		JWTSecret:   jwtSecret,
		TokenMaxAge: time.Duration(tokenMaxAge) * time.Second,

		ClientDistDir: getEnv("CLIENT_DIST_DIR", "../client/dist"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DebugErrors: debugErrors,

		RedisURL: os.Getenv("REDIS_URL"),

		GoogleBooksURL:    getEnv("GOOGLE_BOOKS_URL", "https://www.googleapis.com/books/v1"),
		GoogleBooksAPIKey: os.Getenv("GOOGLE_BOOKS_API_KEY"),

		AuthRateLimit:     authRateLimit,
		TrustProxyHeaders: trustProxy,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
