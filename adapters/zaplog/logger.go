// Package zaplog adapts go.uber.org/zap to pushcomm.Logger.
package zaplog

import (
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration.
type Config struct {
	Debug     bool
	SentryDSN string            // optional; errors are reported to Sentry when set
	Tags      map[string]string // attached to Sentry events
}

// Logger implements pushcomm.Logger on a zap SugaredLogger.
type Logger struct {
	base   *zap.Logger
	sugar  *zap.SugaredLogger
	sentry *sentry.Client
}

// New builds a development (Debug) or production zap logger, optionally
// teeing error-level entries to Sentry.
func New(cfg Config) (*Logger, error) {
	var zapConfig zap.Config
	if cfg.Debug {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	base, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	if cfg.SentryDSN == "" {
		return Wrap(base), nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:   cfg.SentryDSN,
		Debug: cfg.Debug,
	})
	if err != nil {
		return nil, err
	}

	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   zapcore.InfoLevel,
		Tags:              cfg.Tags,
	}, zapsentry.NewSentryClientFromClient(client))
	if err != nil {
		return nil, err
	}

	l := Wrap(zapsentry.AttachCoreToLogger(core, base))
	l.sentry = client
	return l, nil
}

// Wrap adapts an existing zap logger.
func Wrap(base *zap.Logger) *Logger {
	return &Logger{base: base, sugar: base.Sugar()}
}

// Zap returns the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

func (l *Logger) Info(message string) {
	l.base.Info(message)
}

// Sync flushes buffered log entries and pending Sentry events.
func (l *Logger) Sync(timeout time.Duration) {
	_ = l.base.Sync()
	if l.sentry != nil {
		l.sentry.Flush(timeout)
	}
}
