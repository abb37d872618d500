package history

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"
)

// GormLogger routes GORM logging through zerolog.
type GormLogger struct {
	Logger   zerolog.Logger
	LogLevel logger.LogLevel
}

func NewGormLogger() *GormLogger {
	return &GormLogger{
		Logger:   log.Logger.With().Str("component", "history").Logger(),
		LogLevel: logger.Warn,
	}
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Info {
		l.Logger.Info().Msgf(msg, data...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Warn {
		l.Logger.Warn().Msgf(msg, data...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Error {
		l.Logger.Error().Msgf(msg, data...)
	}
}

// Trace logs failed and slow statements; everything else only at Info level.
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	timeMs := float64(elapsed.Nanoseconds()) / 1e6

	switch {
	case err != nil && l.LogLevel >= logger.Error:
		l.Logger.Error().Err(err).Str("sql", sql).Int64("rows", rows).Float64("timeMs", timeMs).Msg("SQL error")
	case elapsed > time.Second && l.LogLevel >= logger.Warn:
		l.Logger.Warn().Str("sql", sql).Int64("rows", rows).Float64("timeMs", timeMs).Msg("Slow SQL")
	case l.LogLevel == logger.Info:
		l.Logger.Debug().Str("sql", sql).Int64("rows", rows).Float64("timeMs", timeMs).Msg("SQL")
	}
}
