// Package pg bootstraps PostgreSQL access with pgx/v5: a retrying pool
// constructor, goose migrations read from an fs.FS, a healthcheck probe and
// helpers that classify driver errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations.FS, log); err != nil {
//		return err
//	}
//
// Config is populated from PG_* environment variables through pkg/config.
//
// goose is configured through package-level state, so Migrate, MigrateDownTo
// and MigrationVersion serialise on a package mutex.
package pg
