package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ServiceKey is the high-privilege provider credential. It has its own type so
// it can only be handed to the service-tier client, and it never prints.
type ServiceKey string

func (ServiceKey) String() string   { return "[redacted]" }
func (ServiceKey) GoString() string { return "[redacted]" }

// Provider holds the external identity/store provider settings.
type Provider struct {
	URL string `validate:"required,url"`
	// AnonKey is the low-privilege key used for client-initiated calls
	// (credential verification, sign-in).
	AnonKey string `validate:"required"`
	// ServiceKey is used only for server-side privileged lookups.
	ServiceKey ServiceKey `validate:"required"`
	// JWTSecret is the provider's HS256 signing secret, needed by the local
	// and fallback verify modes.
	JWTSecret string
	// VerifyMode selects how credentials are verified: "remote" asks the
	// provider, "local" checks the signature only, "fallback" asks the
	// provider and checks locally while the provider is failing.
	VerifyMode string `validate:"oneof=remote local fallback"`
	Timeout    time.Duration
}

const (
	VerifyRemote   = "remote"
	VerifyLocal    = "local"
	VerifyFallback = "fallback"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string `validate:"required"`
	Environment   string
	LogLevel      string
	SessionSecret string `validate:"required,min=32"`
	SecureCookies bool
	// DatabaseURL switches role, audit and history storage from the provider's
	// REST API to a SQL database (postgres:// or sqlite DSN).
	DatabaseURL string
	AuditBuffer int `validate:"gte=0"`
	// AuditTimeout bounds one audit store append.
	AuditTimeout time.Duration `validate:"gte=0"`
	OpenAIKey    string
	OpenAIModel  string
	Provider     Provider
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
func FromEnv() (Server, error) {
	if err := LoadEnvFile(); err != nil {
		return Server{}, err
	}

	cfg := Server{
		Addr:          getEnv("CAREERGATE_ADDR", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SecureCookies: os.Getenv("SECURE_COOKIES") == "true",
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		AuditBuffer:   getEnvInt("AUDIT_BUFFER", 0),
		AuditTimeout:  getEnvDuration("AUDIT_TIMEOUT", 2*time.Second),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		Provider: Provider{
			URL:        os.Getenv("PROVIDER_URL"),
			AnonKey:    os.Getenv("PROVIDER_ANON_KEY"),
			ServiceKey: ServiceKey(os.Getenv("PROVIDER_SERVICE_KEY")),
			JWTSecret:  os.Getenv("PROVIDER_JWT_SECRET"),
			VerifyMode: os.Getenv("PROVIDER_VERIFY_MODE"),
			Timeout:    getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),
		},
	}
	if cfg.Provider.VerifyMode == "" {
		cfg.Provider.VerifyMode = VerifyRemote
		if cfg.Provider.JWTSecret != "" {
			cfg.Provider.VerifyMode = VerifyLocal
		}
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadEnvFile loads .env from the working directory if it exists. Variables
// already set in the environment are left alone.
func LoadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// DatabaseURL returns DATABASE_URL after loading .env. Maintenance commands
// use it without requiring the full server configuration.
func DatabaseURL() (string, error) {
	if err := LoadEnvFile(); err != nil {
		return "", err
	}
	return os.Getenv("DATABASE_URL"), nil
}

// Validate checks required settings and reports every missing one at once.
func (s Server) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			errs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("config: %s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.Join(errs...)
		}
		return fmt.Errorf("config: %w", err)
	}
	if s.Provider.VerifyMode != VerifyRemote && s.Provider.JWTSecret == "" {
		return fmt.Errorf("config: PROVIDER_VERIFY_MODE=%s requires PROVIDER_JWT_SECRET", s.Provider.VerifyMode)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
