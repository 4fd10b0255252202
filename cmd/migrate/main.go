package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/noah-isme/surveyhustler-api/migrations"
	"github.com/noah-isme/surveyhustler-api/pkg/config"
	"github.com/noah-isme/surveyhustler-api/pkg/database"
	"github.com/noah-isme/surveyhustler-api/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	m, err := newMigrator(cfg.Database)
	if err != nil {
		logr.Fatal("init migrator", zap.Error(err))
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			logr.Warn("close migrator", zap.NamedError("source", sourceErr), zap.NamedError("database", dbErr))
		}
	}()

	if err := execute(m, os.Args[1], os.Args[2:], logr); err != nil {
		logr.Fatal("migration failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func newMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, database.URL(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return m, nil
}

// migrator is the subset of *migrate.Migrate the commands use.
type migrator interface {
	Up() error
	Steps(n int) error
	Migrate(version uint) error
	Force(version int) error
	Version() (uint, bool, error)
}

func execute(m migrator, command string, args []string, logr *zap.Logger) error {
	switch command {
	case "up":
		return reportChange(m.Up(), logr, "migrations applied")

	case "down":
		steps := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			steps = n
		}
		return reportChange(m.Steps(-steps), logr, "migrations rolled back")

	case "goto":
		version, err := versionArg(args)
		if err != nil {
			return err
		}
		return reportChange(m.Migrate(uint(version)), logr, "migrated to version")

	case "force":
		version, err := versionArg(args)
		if err != nil {
			return err
		}
		if err := m.Force(int(version)); err != nil {
			return err
		}
		logr.Info("version forced", zap.Uint64("version", version))
		return nil

	case "status", "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logr.Info("no migrations applied yet")
			return nil
		}
		if err != nil {
			return err
		}
		logr.Info("current version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func reportChange(err error, logr *zap.Logger, msg string) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logr.Info("no change, database already current")
		return nil
	}
	if err != nil {
		return err
	}
	logr.Info(msg)
	return nil
}

func versionArg(args []string) (uint64, error) {
	if len(args) == 0 {
		return 0, errors.New("version number required")
	}
	version, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	return version, nil
}

func printUsage() {
	fmt.Println("usage: migrate <command> [arg]")
	fmt.Println("  up         apply all pending migrations")
	fmt.Println("  down [N]   roll back N migrations (default 1)")
	fmt.Println("  goto N     migrate up or down to version N")
	fmt.Println("  force N    set the version without running migrations")
	fmt.Println("  status     print the current version")
}
