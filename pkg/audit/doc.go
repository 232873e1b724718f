// Package audit records an append-only trail of subscription activations,
// cancellations and administrative overrides.
//
// Entries are written best-effort: callers log a failed write and carry on,
// and nothing in the service reads the trail back to make decisions.
//
//	auditLog := audit.NewLogger(audit.NewMongoStorage(db),
//	    audit.WithRequestIDExtractor(requestid.FromContext),
//	)
//	_ = auditLog.Log(ctx, "subscription.reconcile",
//	    audit.WithUser("u1", "a@b.com"),
//	    audit.WithProvider("hotmart"),
//	    audit.WithMetadata("outcome", "applied"),
//	)
//
// Storages are available for MongoDB, PostgreSQL (schema managed by the
// embedded goose migrations in Migrations) and process memory. AsyncWriter
// batches writes in front of any BatchStorage.
package audit
