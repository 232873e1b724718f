// Package mongo connects to MongoDB with environment-driven settings and
// startup retries.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Connection failures are joined with ErrConnect so callers
// can match them with errors.Is.
package mongo
