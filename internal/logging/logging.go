package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

var (
	opLogger atomic.Pointer[slog.Logger]
	logLevel = new(slog.LevelVar)
)

func init() {
	logLevel.Set(slog.LevelInfo)
	opLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// Config selects the handler format and minimum level.
type Config struct {
	Format string `yaml:"format" json:"format"`
	Level  string `yaml:"level" json:"level"`
}

func DefaultConfig() Config {
	return Config{Format: "text", Level: "info"}
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Format, validation.In("", "text", "json")),
		validation.Field(&c.Level, validation.By(func(any) error {
			if _, ok := parseLevel(c.Level); !ok && c.Level != "" {
				return validation.NewError("validation_invalid_level", "must be debug, info, warn or error")
			}
			return nil
		})),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid log config")
	}
	return nil
}

// Op returns the operational logger.
func Op() *slog.Logger {
	return opLogger.Load()
}

// SetLevelFromString changes the level of loggers built by this package.
// Unknown values are ignored.
func SetLevelFromString(level string) {
	if l, ok := parseLevel(level); ok {
		logLevel.Set(l)
	}
}

// Init reconfigures the operational logger and installs it as the slog default.
// format: "text" (default) or "json".
func Init(cfg Config) *slog.Logger {
	logger := New(cfg, os.Stderr)
	opLogger.Store(logger)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w. Its level follows SetLevelFromString.
func New(cfg Config, w io.Writer) *slog.Logger {
	SetLevelFromString(cfg.Level)

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
