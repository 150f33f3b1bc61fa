package main

import (
	"errors"
	"flag"
	"os"

	"github.com/cassiomorais/checkout/internal/infrastructure/config"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
)

func main() {
	command := flag.String("command", "up", "up, down or version")
	dbURL := flag.String("db", os.Getenv("DATABASE_URL"), "database URL, defaults to the service configuration")
	dir := flag.String("path", "migrations", "directory holding the migration files")
	steps := flag.Int("steps", 0, "number of migrations to apply or roll back, 0 for all")
	flag.Parse()

	logger := observability.InitLogger("info", os.Stdout).With().Str("service", "checkout-migrate").Logger()

	if *dbURL == "" {
		cfg, err := config.Load()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load config")
		}
		*dbURL = cfg.Database.MigrationURL()
	}

	m, err := migrate.New("file://"+*dir, *dbURL)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *dir).Msg("Failed to open migrations")
	}
	defer m.Close()
	m.Log = migrateLogger{logger}

	if err := run(m, *command, *steps); err != nil {
		logger.Error().Err(err).Str("command", *command).Msg("Migration failed")
		m.Close()
		os.Exit(1)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Error().Err(err).Msg("Failed to read schema version")
		return
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Str("command", *command).Msg("Schema migrated")
}

func run(m *migrate.Migrate, command string, steps int) error {
	var err error
	switch command {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
		return nil
	default:
		return errors.New("unknown command " + command)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// migrateLogger routes golang-migrate's progress lines through zerolog.
type migrateLogger struct {
	logger zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info().Msgf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return false
}
