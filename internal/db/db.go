package db

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/overdrive/techfest/internal/models"
)

const dsnParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

var conn *gorm.DB

// newLogger reports slow queries and errors to w. A draft that is not found
// is an ordinary outcome of Load and is not logged.
func newLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Open opens (creating if needed) the drafts database at path and migrates it.
func Open(path string) (*gorm.DB, error) {
	return open(path, newLogger(os.Stderr))
}

func open(path string, lg logger.Interface) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?" + dsnParams
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: lg})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := gdb.AutoMigrate(&models.DraftRecord{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	// Composite index for the stale-draft sweep.
	if err := gdb.Exec("CREATE INDEX IF NOT EXISTS idx_drafts_status_updated ON draft_records(status, updated_at)").Error; err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return gdb, nil
}

// Init opens the process-wide connection returned by Conn.
func Init(path string) error {
	gdb, err := Open(path)
	if err != nil {
		return err
	}
	conn = gdb
	slog.Info("database ready", "driver", "sqlite", "path", path)
	return nil
}

func Conn() *gorm.DB {
	return conn
}

// Close releases the process-wide connection.
func Close() error {
	if conn == nil {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
