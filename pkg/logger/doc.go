// Package logger builds *slog.Logger values for accountkit services.
//
// New applies functional options (format, level, static attributes, context
// extractors) and wraps the chosen slog handler in LogHandlerDecorator, which
// pulls request-scoped values such as the request ID out of the context on
// every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, "accountd"),
//	    logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "token rejected",
//	    logger.Component("auth"),
//	    logger.Purpose(token.PurposeConfirm),
//	    logger.Reason(res.Reason),
//	)
//
// Attribute helpers in attr.go keep key names consistent. Helpers that take
// an error or an optional identifier return an empty slog.Attr for nil input,
// which slog drops, so callers never need a nil check.
//
// Token strings and secrets must never be passed to a logger; use TokenID to
// correlate a token by its jti instead.
package logger
