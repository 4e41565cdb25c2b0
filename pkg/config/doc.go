// Package config loads application configuration from the environment.
//
// It wraps github.com/joho/godotenv for .env files and
// github.com/caarlos0/env/v11 for struct parsing:
//
//   - LoadEnv reads one or more .env files without overriding variables that
//     are already set. Later files win over earlier ones.
//   - Load parses the environment into a struct once per type and caches the
//     result for the life of the process.
//   - Config types implementing Validator are checked right after parsing;
//     a failing Validate is reported as ErrInvalidConfig.
//   - MustLoadEnv and MustLoad panic instead of returning errors.
//   - ResetCache and ForceReloadConfig exist for tests.
//
// # Usage
//
//	type Config struct {
//		Secret string        `env:"TOKEN_SECRET,required"`
//		TTL    time.Duration `env:"TOKEN_DEFAULT_TTL" envDefault:"1h"`
//	}
//
//	func (c Config) Validate() error {
//		if len(c.Secret) < 32 {
//			return errors.New("TOKEN_SECRET must be at least 32 bytes")
//		}
//		return nil
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// # Errors
//
//   - ErrParsingConfig: env.Parse failed, e.g. a required variable is missing.
//   - ErrInvalidConfig: Validate rejected the parsed value.
//   - ErrLoadingEnvFile: a .env file could not be read.
//   - ErrNilPointer: Load got a nil pointer.
package config
