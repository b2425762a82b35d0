// Package datastore provides logging infrastructure for database operations
package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tphakala/imagedb-go/internal/conf"
	"github.com/tphakala/imagedb-go/internal/errors"
	"github.com/tphakala/imagedb-go/internal/logging"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Package-level logger for datastore operations
var (
	datastoreLogger   *slog.Logger
	datastoreLevelVar = new(slog.LevelVar) // Dynamic level control
	loggerCloseFunc   func() error         // Function to close the logger
	loggerMu          sync.Mutex           // Protects logger access
)

// InitializeLogger sets up the datastore logger from the main log settings.
// With main.log enabled it writes rotated JSON logs to the configured file;
// otherwise, or when the file cannot be opened, it falls back to the global
// structured logger.
func InitializeLogger(settings *conf.Settings) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	return initLoggerLocked(settings)
}

func initLoggerLocked(settings *conf.Settings) error {
	if settings != nil && settings.Main.Log.Enabled {
		level := slog.LevelInfo
		if settings.Debug {
			level = slog.LevelDebug
		}
		datastoreLevelVar.Set(level)

		fileLogger, closeFunc, err := logging.NewFileLogger(settings.Main.Log.Path, "datastore", datastoreLevelVar)
		if err == nil {
			datastoreLogger = fileLogger
			loggerCloseFunc = closeFunc
			return nil
		}

		datastoreLogger = fallbackLogger()
		return errors.New(fmt.Errorf("initializing datastore file logger: %w", err)).
			Component("datastore").
			Category(errors.CategoryFileIO).
			Context("log_file", settings.Main.Log.Path).
			Build()
	}

	datastoreLogger = fallbackLogger()
	return nil
}

// CloseLogger closes the file logger if one was opened.
func CloseLogger() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if loggerCloseFunc != nil {
		return loggerCloseFunc()
	}
	return nil
}

func fallbackLogger() *slog.Logger {
	if l := logging.ForService("datastore"); l != nil {
		return l
	}
	return slog.Default().With("service", "datastore")
}

// getLogger returns the datastore logger, initializing it from the loaded
// settings on first use when InitializeLogger has not been called.
func getLogger() *slog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if datastoreLogger == nil {
		// A failed file open already falls back; the error only matters
		// to the explicit initialization path.
		_ = initLoggerLocked(conf.GetSettings())
	}
	return datastoreLogger
}

// GormLogger implements GORM's logger interface with structured logging
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      logger.LogLevel
}

// newGormLogger creates the GORM logger used by both dialect stores.
func newGormLogger(debug bool) *GormLogger {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

// LogMode implements logger.Interface
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

// Info implements logger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Info {
		getLogger().InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Warn implements logger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Warn {
		getLogger().WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Error implements logger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Error {
		getLogger().ErrorContext(ctx, "GORM error",
			"msg", fmt.Sprintf(msg, data...))
	}
}

// Trace implements logger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		getLogger().ErrorContext(ctx, "Database query failed",
			"error", err,
			"sql", sql,
			"duration", elapsed,
			"rows_affected", rows)
	case elapsed > l.SlowThreshold && l.SlowThreshold != 0:
		getLogger().WarnContext(ctx, "Slow query detected",
			"sql", sql,
			"duration", elapsed,
			"rows_affected", rows,
			"threshold", l.SlowThreshold)
	case l.LogLevel >= logger.Info:
		getLogger().DebugContext(ctx, "Query executed",
			"sql", sql,
			"duration", elapsed,
			"rows_affected", rows)
	}
}
