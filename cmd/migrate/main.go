package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/joao-fontenele/storefront/internal/config"
)

const usage = "usage: migrate <up [N] | down [N] | version | force V>"

// migrator is the part of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
}

type command struct {
	name string
	n    int
}

func parseArgs(args []string) (command, error) {
	if len(args) == 0 || len(args) > 2 {
		return command{}, errors.New(usage)
	}

	cmd := command{name: args[0]}
	switch cmd.name {
	case "up", "down":
		if cmd.name == "down" {
			cmd.n = 1
		}
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return command{}, fmt.Errorf("%s: step count must be a positive integer", cmd.name)
			}
			cmd.n = n
		}
	case "force":
		if len(args) != 2 {
			return command{}, errors.New("force: version is required")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return command{}, fmt.Errorf("force: invalid version %q", args[1])
		}
		cmd.n = v
	case "version":
		if len(args) != 1 {
			return command{}, errors.New(usage)
		}
	default:
		return command{}, fmt.Errorf("unknown command %q", cmd.name)
	}
	return cmd, nil
}

func run(m migrator, cmd command, logger *slog.Logger) error {
	switch cmd.name {
	case "up":
		var err error
		if cmd.n > 0 {
			err = m.Steps(cmd.n)
		} else {
			err = m.Up()
		}
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no pending migrations")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migration up: %w", err)
		}
		logger.Info("migrations applied")

	case "down":
		err := m.Steps(-cmd.n)
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to roll back")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migration down: %w", err)
		}
		logger.Info("migrations rolled back", slog.Int("steps", cmd.n))

	case "force":
		if err := m.Force(cmd.n); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
		logger.Info("version forced", slog.Int("version", cmd.n))

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		logger.Info("current migration version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	}
	return nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	flag.Parse()

	cmd, err := parseArgs(flag.Args())
	if err != nil {
		logger.Error("invalid arguments", slog.String("error", err.Error()))
		os.Exit(2)
	}

	config.LoadDotEnv()
	cfg, err := config.LoadMigrate()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	m, err := migrate.New(cfg.MigrationsPath, cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to create migrate instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	runErr := run(m, cmd, logger)
	if _, dbErr := m.Close(); dbErr != nil {
		logger.Error("failed to close migrate instance", slog.String("error", dbErr.Error()))
	}
	if runErr != nil {
		logger.Error("migration failed", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
}
