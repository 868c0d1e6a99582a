package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

var DB *gorm.DB

// Connect opens the SDWIS dataset and stores it in DB. It exits the process
// when the dataset cannot be reached.
func Connect(dsn, logLevel string) {
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	d, err := Open(dsn, logLevel)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	DB = d
	log.Printf("Connected to %s dataset", d.Dialector.Name())
}

// Open connects to a Postgres URL (postgres:// or postgresql://) through pgx,
// or to anything else as a SQLite file opened read-only.
func Open(dsn, logLevel string) (*gorm.DB, error) {
	dialector, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	// Slow queries surface in the service log.
	lg := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  parseLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	d, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 lg,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	sqlDB, err := d.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	if isPostgres(dsn) {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// Read-only file; a handful of readers is plenty.
		sqlDB.SetMaxOpenConns(4)
	}

	return d, nil
}

// Ping checks the dataset connection.
func Ping(ctx context.Context, d *gorm.DB) error {
	sqlDB, err := d.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	if isPostgres(dsn) {
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse postgres url: %w", err)
		}
		return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*cfg)}), nil
	}
	return &sqlite.Dialector{DriverName: "sqlite", DSN: sqliteReadOnly(dsn)}, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// sqliteReadOnly turns a bare path into a read-only URI. DSNs that already
// carry a scheme or query are passed through untouched.
func sqliteReadOnly(dsn string) string {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, "?") || dsn == ":memory:" {
		return dsn
	}
	return "file:" + dsn + "?mode=ro&_pragma=query_only(1)"
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
