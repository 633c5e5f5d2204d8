package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smartblog/config"
	deliverycontext "smartblog/internal/delivery/context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultGormSlowThreshold = 200 * time.Millisecond

// gormSlogLogger routes gorm output to the request-scoped slog logger.
// Bind parameters carry password hashes and tokens, so they are only rendered in debug.
type gormSlogLogger struct {
	logger        *slog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
	showParams    bool
}

func newGormSlogLogger(baseLogger *slog.Logger, cfg *config.Config) logger.Interface {
	l := &gormSlogLogger{
		logger:        baseLogger,
		level:         logger.Warn,
		slowThreshold: defaultGormSlowThreshold,
	}
	if cfg != nil && cfg.Env.Debug {
		l.level = logger.Info
		l.showParams = true
	}

	return l
}

func (l *gormSlogLogger) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level

	return &cloned
}

// ParamsFilter implements gorm.ParamsFilter. Returning nil params makes gorm log the
// statement with placeholders.
func (l *gormSlogLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if l.showParams {
		return sql, params
	}

	return sql, nil
}

func (l *gormSlogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logf(ctx, logger.Info, slog.LevelInfo, msg, args...)
}

func (l *gormSlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logf(ctx, logger.Warn, slog.LevelWarn, msg, args...)
}

func (l *gormSlogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logf(ctx, logger.Error, slog.LevelError, msg, args...)
}

func (l *gormSlogLogger) logf(ctx context.Context, threshold logger.LogLevel, level slog.Level, msg string, args ...any) {
	if l.level < threshold || l.logger == nil {
		return
	}

	l.log(ctx).LogAttrs(ctx, level, "gorm", slog.String("message", fmt.Sprintf(msg, args...)))
}

func (l *gormSlogLogger) Trace(ctx context.Context, begin time.Time, sqlAndRowsFn func() (string, int64), err error) {
	if l.logger == nil || l.level == logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	level, msg, ok := l.classify(err, elapsed)
	if !ok {
		return
	}

	sql, rows := sqlAndRowsFn()
	attrs := []slog.Attr{
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", sql),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	l.log(ctx).LogAttrs(ctx, level, msg, attrs...)
}

// classify decides whether and how a finished statement is logged.
// Missing rows and unique violations are answered as 404 and 409, so they are not failures here.
func (l *gormSlogLogger) classify(err error, elapsed time.Duration) (slog.Level, string, bool) {
	switch {
	case err != nil && errors.Is(err, gorm.ErrRecordNotFound):
		return 0, "", false
	case err != nil && isUniqueConstraintViolation(err):
		return slog.LevelWarn, "Query hit unique constraint", l.level >= logger.Warn
	case err != nil:
		return slog.LevelError, "Query failed", l.level >= logger.Error
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		return slog.LevelWarn, "Slow query", l.level >= logger.Warn
	default:
		return slog.LevelDebug, "Query", l.level >= logger.Info
	}
}

func (l *gormSlogLogger) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, l.logger)
}
