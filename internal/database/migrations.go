package database

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrationsDir returns the embedded directory holding the dialect's migrations
func MigrationsDir(dialect Dialect) string {
	return path.Join("migrations", string(dialect))
}

func gooseDialect(dialect Dialect) string {
	if dialect == DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}

type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.Infof(strings.TrimSpace(format), v...)
}

func prepareGoose(db *DB, logger *zap.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{logger.Sugar()})
	if err := goose.SetDialect(gooseDialect(db.Dialect())); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *DB, logger *zap.Logger) error {
	if err := prepareGoose(db, logger); err != nil {
		return err
	}

	dir := MigrationsDir(db.Dialect())
	logger.Info("Checking for pending migrations...", zap.String("dir", dir))

	if err := goose.Up(db.SQL(), dir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully")
	return nil
}

// GetMigrationStatus prints the current migration status
func GetMigrationStatus(db *DB, logger *zap.Logger) error {
	if err := prepareGoose(db, logger); err != nil {
		return err
	}

	return goose.Status(db.SQL(), MigrationsDir(db.Dialect()))
}
