package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/uus/internal/shared"
	"github.com/desertthunder/uus/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the local database and runs migrations, seeding the default categories.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Database.Path
	if path == "" {
		return fmt.Errorf("%w: database.path", shared.ErrMissingConfig)
	}

	r.logger.Info("initializing database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", path)
	r.writePlain("%s Database ready at %s (schema version %d)\n", ui.OK("✓"), path, version)
	if r.config.Backend.Driver != shared.BackendSQLite {
		r.writePlain("%s\n", ui.Warn(fmt.Sprintf("note: backend.driver is %q, so the server will not use this database", r.config.Backend.Driver)))
	}
	return nil
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	before, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}

	after, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Info("rolled back migration", "from", before, "to", after)
	r.writePlain("%s Rolled back schema version %d (now %d)\n", ui.OK("✓"), before, after)
	return nil
}

// SetupConfig writes the example configuration to --output.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("%s Config written to %s\n", ui.OK("✓"), path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Choose a backend in [backend] (sqlite or supabase)\n")
	r.writePlain("2. For Supabase, set SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY (a .env file works)\n")
	r.writePlain("3. Run 'uus setup database' for sqlite, then 'uus serve'\n")
	return nil
}
