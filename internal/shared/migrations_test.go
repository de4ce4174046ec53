package shared

import (
	"testing"
)

func TestMigrations(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) < 2 {
			t.Fatalf("expected schema and seed migrations, got %d", len(migrations))
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		if migrations[0].Name != "create_catalog" {
			t.Errorf("expected first migration name create_catalog, got %q", migrations[0].Name)
		}
	})

	t.Run("Run And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var categories int
		if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&categories); err != nil {
			t.Fatalf("categories table should exist: %v", err)
		}
		if categories != 5 {
			t.Errorf("expected 5 seeded categories, got %d", categories)
		}

		if _, err := db.Exec("SELECT id, video_embed_code FROM courses LIMIT 1"); err != nil {
			t.Errorf("courses table should exist: %v", err)
		}

		version, err := CurrentVersion(db)
		if err != nil {
			t.Fatalf("failed to read version: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		after, err := CurrentVersion(db)
		if err != nil {
			t.Fatalf("failed to read version after rollback: %v", err)
		}
		if after >= version {
			t.Errorf("expected version to decrease after rollback, got %d (was %d)", after, version)
		}

		if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&categories); err != nil {
			t.Fatalf("failed to count categories: %v", err)
		}
		if categories != 0 {
			t.Errorf("expected seed rollback to remove categories, got %d", categories)
		}
	})

	t.Run("Rollback Without Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY, applied_at TIMESTAMP)"); err != nil {
			t.Fatalf("failed to create table: %v", err)
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing is applied")
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		for i := 0; i < 2; i++ {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("run %d failed: %v", i+1, err)
			}
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}
