package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

const (
	storagePathFlag   = "storage-path"
	migrationPathFlag = "migrations-path"
	downFlag          = "down"

	storagePathEnv = "CATALOG_SQL_DB"
)

type migrationArgs struct {
	storagePath    string
	migrationsPath string
	down           bool
}

func main() {
	args := getFlagsValues()
	validateFlags(args)
	makeMigrations(args)
}

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger() *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default(),
		verbose: true,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

// getFlagsValues falls back to CATALOG_SQL_DB when --storage-path is
// not set. A postgres:// DSN is accepted as is.
func getFlagsValues() migrationArgs {
	storagePath := pflag.StringP(storagePathFlag, "s", "", "database DSN")
	migrationsPath := pflag.StringP(migrationPathFlag, "m", "migrations", "migrations dir")
	down := pflag.Bool(downFlag, false, "roll every migration back")
	pflag.Parse()

	if *storagePath == "" {
		*storagePath = os.Getenv(storagePathEnv)
	}
	return migrationArgs{
		storagePath:    trimScheme(*storagePath),
		migrationsPath: *migrationsPath,
		down:           *down,
	}
}

func trimScheme(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://", "pgx5://"} {
		if after, ok := strings.CutPrefix(dsn, scheme); ok {
			return after
		}
	}
	return dsn
}

func validateFlags(args migrationArgs) {
	var errs []error

	if args.storagePath == "" {
		errs = append(errs, fmt.Errorf(
			"--%s flag or %s env: required", storagePathFlag, storagePathEnv,
		))
	}

	if args.migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	if len(errs) != 0 {
		slog.Error("too few args", "err", errors.Join(errs...))
		fallDown()
	}
}

func makeMigrations(args migrationArgs) {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", args.migrationsPath),
		fmt.Sprintf("pgx5://%s", args.storagePath),
	)
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}

	m.Log = NewMigrationLogger()

	apply := m.Up
	if args.down {
		apply = m.Down
	}

	if err := apply(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log.Printf("migrations applied")
}

func fallDown() {
	os.Exit(2)
}
