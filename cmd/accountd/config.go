package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/accountkit/pkg/email"
	"github.com/dmitrymomot/accountkit/pkg/httpserver"
	"github.com/dmitrymomot/accountkit/pkg/logger"
	"github.com/dmitrymomot/accountkit/pkg/ratelimiter"
)

const minSecretLen = 32

const (
	storeMemory   = "memory"
	storePostgres = "postgres"
	storeMongo    = "mongo"

	throttleNone   = "none"
	throttleMemory = "memory"
	throttleRedis  = "redis"

	rateLimitNone   = "none"
	rateLimitMemory = "memory"
	rateLimitRedis  = "redis"
)

// appConfig holds the settings every deployment needs. Backend settings
// (pg.Config, mongo.Config, redis.Config) are loaded only for the backend
// that is selected, so their required variables stay optional otherwise.
type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"accountkit"`
	BaseURL  string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel string `env:"LOG_LEVEL"`

	TokenSecret         string        `env:"TOKEN_SECRET,required,unset"`
	TokenIssuer         string        `env:"TOKEN_ISSUER" envDefault:"accountkit"`
	TokenDefaultTTL     time.Duration `env:"TOKEN_DEFAULT_TTL" envDefault:"1h"`
	ConfirmTokenTTL     time.Duration `env:"CONFIRM_TOKEN_TTL" envDefault:"24h"`
	ResetTokenTTL       time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`
	EmailChangeTokenTTL time.Duration `env:"EMAIL_CHANGE_TOKEN_TTL" envDefault:"1h"`

	BcryptCost        int `env:"BCRYPT_COST" envDefault:"12"`
	MinPasswordLength int `env:"MIN_PASSWORD_LENGTH" envDefault:"8"`

	StoreBackend    string        `env:"STORE_BACKEND" envDefault:"memory"`
	ThrottleBackend string        `env:"THROTTLE_BACKEND" envDefault:"memory"`
	ThrottleWindow  time.Duration `env:"THROTTLE_WINDOW" envDefault:"1m"`

	RateLimitBackend string `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`

	HTTP      httpserver.Config
	Email     email.Config
	RateLimit ratelimiter.Config
}

func (c appConfig) needsRedis() bool {
	return c.ThrottleBackend == throttleRedis || c.RateLimitBackend == rateLimitRedis
}

func (c appConfig) Validate() error {
	var errs []error
	if len(c.TokenSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("TOKEN_SECRET must be at least %d bytes", minSecretLen))
	}
	for name, ttl := range map[string]time.Duration{
		"TOKEN_DEFAULT_TTL":      c.TokenDefaultTTL,
		"CONFIRM_TOKEN_TTL":      c.ConfirmTokenTTL,
		"RESET_TOKEN_TTL":        c.ResetTokenTTL,
		"EMAIL_CHANGE_TOKEN_TTL": c.EmailChangeTokenTTL,
	} {
		if ttl < time.Second {
			errs = append(errs, fmt.Errorf("%s must be at least 1s", name))
		}
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}
	switch c.StoreBackend {
	case storeMemory, storePostgres, storeMongo:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	switch c.ThrottleBackend {
	case throttleNone, throttleMemory, throttleRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown THROTTLE_BACKEND %q", c.ThrottleBackend))
	}
	switch c.RateLimitBackend {
	case rateLimitNone, rateLimitMemory, rateLimitRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend))
	}
	switch c.Env {
	case logger.EnvDevelopment, logger.EnvStaging, logger.EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("unknown APP_ENV %q", c.Env))
	}
	if c.Env == logger.EnvProduction && c.StoreBackend == storeMemory {
		errs = append(errs, errors.New("STORE_BACKEND=memory is not allowed in production"))
	}
	return errors.Join(errs...)
}
