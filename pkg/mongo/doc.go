// Package mongo connects to MongoDB with the official v2 driver, retrying
// until the server answers a ping, and exposes a healthcheck probe.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer mongo.Disconnect(context.Background(), db.Client())
//
// Config is read from MONGODB_* environment variables.
package mongo
