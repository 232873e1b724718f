// Package requestid attaches a correlation id to every HTTP request.
//
// Middleware reuses a well-formed X-Request-ID header or generates a UUID,
// stores it in the request context and echoes it back. FromContext reads it
// for audit entries; LoggerExtractor plugs it into pkg/logger so every record
// logged with the request context carries request_id.
//
//	r.Use(requestid.Middleware(requestid.WithFallbackHeaders("X-Correlation-ID")))
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	auditLog := audit.NewLogger(storage, audit.WithRequestIDExtractor(requestid.FromContext))
package requestid
