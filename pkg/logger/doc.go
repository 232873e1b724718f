// Package logger builds *slog.Logger instances with functional options and
// injects request-scoped values from context.Context into every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "vemx1"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "subscription reconciled",
//	    logger.UserID(res.UserID),
//	    logger.Provider("hotmart"),
//	    logger.Outcome("applied"),
//	)
//
// Attribute helpers such as UserID, Provider and TransactionID keep key names
// consistent across packages. Error and Errors return an empty attribute for
// nil errors, so they can be passed without a nil check.
package logger
