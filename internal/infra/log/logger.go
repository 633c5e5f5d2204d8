// Package logs builds the process-wide slog logger from the env section of the configuration.
package logs

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"smartblog/config"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const redacted = "[REDACTED]"

// sensitiveKeys never reach the log output, whatever handler renders them.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"authorization": {},
	"refreshtoken":  {},
	"authtoken":     {},
}

type Params struct {
	fx.In

	Config *config.Config
}

// New creates the logger. JSON unless env.log.pretty; env.debug forces debug level with source locations.
func New(params Params) (*slog.Logger, error) {
	return newLogger(os.Stdout, params.Config)
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{ReplaceAttr: redactSensitive}
	if cfg.Env.Debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else {
		level, err := parseLogLevel(cfg.Env.Log.Level)
		if err != nil {
			return nil, err
		}
		opts.Level = level
	}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if cfg.Env.Log.Pretty {
		handler = slog.NewTextHandler(w, opts)
	}

	attrs := make([]any, 0, 2)
	if cfg.Env.ServiceName != "" {
		attrs = append(attrs, slog.String("service", cfg.Env.ServiceName))
	}
	if cfg.Env.Env != "" {
		attrs = append(attrs, slog.String("env", cfg.Env.Env))
	}

	return slog.New(handler).With(attrs...), nil
}

func redactSensitive(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}

	return a
}

func parseLogLevel(level string) (slog.Level, error) {
	if level == "" {
		return slog.LevelInfo, nil
	}

	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, errors.Wrapf(err, "unknown log level %q", level)
	}

	return parsed, nil
}
