// Package httpserver runs an http.Handler with graceful shutdown.
//
// Run blocks until its context is cancelled, SIGINT or SIGTERM arrives, or
// Shutdown is called, then drains in-flight requests and runs OnShutdown
// hooks within the configured shutdown timeout. Listen failures match
// ErrStart and drain or hook failures match ErrShutdown.
//
//	srv := httpserver.New(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.OnShutdown(auditWriter.Close),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// LivenessHandler and ReadinessHandler back the /healthz and /readyz probes.
// Readiness runs named dependency checks (store ping, Redis ping) and answers
// 503 with a per-check breakdown when any of them fails.
package httpserver
