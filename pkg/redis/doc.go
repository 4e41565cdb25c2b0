// Package redis connects to Redis with go-redis/v9 and exposes a healthcheck
// probe. accountkit uses it for the token issuance throttle.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Config is read from REDIS_* environment variables.
package redis
