// Package pg opens pgx/v5 connection pools with startup retries and applies
// goose migrations from an fs.FS.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.Migrate(ctx, pool, audit.Migrations, "migrations", cfg, log); err != nil {
//	    return err
//	}
//
// Helpers such as IsDuplicateKeyError classify *pgconn.PgError values.
package pg
