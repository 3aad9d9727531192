// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// lazyLogger binds context to whatever root logger is current at call time.
type lazyLogger struct {
	ctx []any
}

func (l *lazyLogger) logger() ethlog.Logger {
	return ethlog.Root().With(l.ctx...)
}

func (l *lazyLogger) With(ctx ...any) ethlog.Logger {
	return &lazyLogger{ctx: append(append([]any{}, l.ctx...), ctx...)}
}

func (l *lazyLogger) New(ctx ...any) ethlog.Logger {
	return l.With(ctx...)
}

func (l *lazyLogger) Log(level slog.Level, msg string, ctx ...any) {
	l.logger().Log(level, msg, ctx...)
}

func (l *lazyLogger) Trace(msg string, ctx ...any) { l.logger().Trace(msg, ctx...) }
func (l *lazyLogger) Debug(msg string, ctx ...any) { l.logger().Debug(msg, ctx...) }
func (l *lazyLogger) Info(msg string, ctx ...any)  { l.logger().Info(msg, ctx...) }
func (l *lazyLogger) Warn(msg string, ctx ...any)  { l.logger().Warn(msg, ctx...) }
func (l *lazyLogger) Error(msg string, ctx ...any) { l.logger().Error(msg, ctx...) }
func (l *lazyLogger) Crit(msg string, ctx ...any)  { l.logger().Crit(msg, ctx...) }

func (l *lazyLogger) Write(level slog.Level, msg string, attrs ...any) {
	l.logger().Write(level, msg, attrs...)
}

func (l *lazyLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.logger().Enabled(ctx, level)
}

func (l *lazyLogger) Handler() slog.Handler {
	return l.logger().Handler()
}
