package redis

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("empty redis connection URL, use REDIS_URL env var")
	ErrInvalidURL         = errors.New("invalid redis connection URL")
	ErrNotReady           = errors.New("redis did not answer ping before the connect timeout")
	ErrHealthcheckFailed  = errors.New("redis healthcheck failed")
)
