package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/doctornoo/pdpa-consent/internal/pkg/database"
	"github.com/doctornoo/pdpa-consent/internal/pkg/env"
)

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	cfg := database.ConfigFromEnv()

	log.Printf("Connecting to database: %s@%s:%s/%s", cfg.User, cfg.Host, cfg.Port, cfg.Name)

	m, err := migrate.New(
		"file://"+env.GetEnv("MIGRATIONS_DIR", "migrations"),
		cfg.MigrateURL(),
	)
	if err != nil {
		log.Fatalf("Failed to initialise migrations: %v", err)
	}

	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("Failed to close migration resources: %v, %v", sourceErr, dbErr)
		}
	}()

	if err := run(m, command, os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}

func run(m *migrate.Migrate, command string, args []string) error {
	switch command {
	case "up":
		// Apply all pending migrations
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("No change: database is already up to date")
			return nil
		}
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Println("Migrations applied")

	case "down":
		// Roll back the latest migration only
		if err := m.Steps(-1); err != nil {
			return fmt.Errorf("rolling back last migration: %w", err)
		}
		log.Println("Last migration rolled back")

	case "goto":
		if len(args) < 1 {
			return errors.New("goto needs a version number")
		}
		version, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version number: %w", err)
		}
		err = m.Migrate(uint(version))
		if errors.Is(err, migrate.ErrNoChange) {
			log.Printf("No change: database is already at version %d", version)
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrating to version %d: %w", version, err)
		}
		log.Printf("Migrated to version %d", version)

	case "status":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Println("No migrations have been applied yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading migration version: %w", err)
		}
		dirtyStatus := ""
		if dirty {
			dirtyStatus = " (dirty)"
		}
		log.Printf("Current migration version: %d%s", version, dirtyStatus)

	default:
		printUsage()
		os.Exit(1)
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: go run ./cmd/migrate [command]")
	fmt.Println("Commands:")
	fmt.Println("  up     - apply all pending migrations")
	fmt.Println("  down   - roll back the latest migration")
	fmt.Println("  goto N - migrate to version N")
	fmt.Println("  status - show the current migration version")
}
