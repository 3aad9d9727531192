// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is the logging front of the module. It delegates to the slog based
// logger of go-ethereum and adds per-package context loggers.
package log

import (
	"io"
	"log/slog"
	"strings"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// Logger is the structured key/value logger.
type Logger = ethlog.Logger

const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// Legacy verbosity levels accepted by the cli.
const (
	LegacyLevelCrit = iota
	LegacyLevelError
	LegacyLevelWarn
	LegacyLevelInfo
	LegacyLevelDebug
	LegacyLevelTrace
)

// Root returns the root logger.
func Root() Logger {
	return ethlog.Root()
}

// SetDefault replaces the root logger.
func SetDefault(l Logger) {
	ethlog.SetDefault(l)
}

// NewLogger creates a logger writing to h.
func NewLogger(h slog.Handler) Logger {
	return ethlog.NewLogger(h)
}

// New returns a logger derived from the root with the given context.
func New(ctx ...any) Logger {
	return ethlog.Root().With(ctx...)
}

// WithContext returns a logger that resolves the root lazily, so loggers declared as
// package variables follow later SetDefault calls.
func WithContext(ctx ...any) Logger {
	return &lazyLogger{ctx: ctx}
}

// NewTerminalHandler returns a human readable handler filtered at lvl.
func NewTerminalHandler(w io.Writer, lvl slog.Level, useColor bool) slog.Handler {
	return ethlog.NewTerminalHandlerWithLevel(w, lvl, useColor)
}

// JSONHandler returns a json handler filtered at lvl.
func JSONHandler(w io.Writer, lvl slog.Level) slog.Handler {
	return ethlog.JSONHandlerWithLevel(w, lvl)
}

// DiscardHandler returns a no-op handler.
func DiscardHandler() slog.Handler {
	return ethlog.DiscardHandler()
}

// LevelFromVerbosity maps the legacy 0-5 verbosity of the cli to a level.
func LevelFromVerbosity(v int) slog.Level {
	return ethlog.FromLegacyLevel(v)
}

var levelNames = map[string]slog.Level{
	"trace": LevelTrace,
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
	"crit":  LevelCrit,
}

// LevelFromString parses trace, debug, info, warn, error or crit.
func LevelFromString(s string) (slog.Level, error) {
	lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, errors.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// Trace, Debug, Info, Warn and Error log on the root logger.
func Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { ethlog.Root().Error(msg, ctx...) }
