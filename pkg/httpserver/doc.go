// Package httpserver wraps net/http with graceful shutdown, timeouts,
// lifecycle logging and JSON health probes.
//
// Run binds the listener, serves until ctx is cancelled or Shutdown is
// called, and then drains in-flight requests within the shutdown timeout.
// Signal handling is left to the caller (signal.NotifyContext in main).
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// LivenessHandler and ReadinessHandler back /health/live and /health/ready.
package httpserver
