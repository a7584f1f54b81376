package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// InitLogger настраивает глобальный логгер по уровню и формату (text|json)
func InitLogger(level, format string) *slog.Logger {
	return InitLoggerTo(os.Stdout, level, format)
}

// InitLoggerTo делает то же самое, но пишет в произвольный io.Writer
func InitLoggerTo(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	logger.Store(l)
	slog.SetDefault(l)
	return l
}

// Logger возвращает текущий логгер приложения
func Logger() *slog.Logger {
	return logger.Load()
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogInfo логирует информационное сообщение
func LogInfo(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// LogError логирует сообщение об ошибке
func LogError(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// LogDebug логирует отладочное сообщение
func LogDebug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// LogOperation логирует операцию с длительностью и записывает ее в метрики.
// Ненулевой err считается сбоем и пишется на уровне ERROR.
func LogOperation(operation string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	GetMetrics().RecordOperation(operation, duration, err)
	if err != nil {
		LogError("operation failed", "operation", operation, "duration", duration, "error", err)
	} else {
		LogInfo("operation completed", "operation", operation, "duration", duration)
	}
}

// LogRejectedOperation логирует операцию, отклоненную по бизнес-правилу (нехватка
// средств, блокировка скорером и т.п.). В счетчик ошибок она не попадает.
func LogRejectedOperation(operation string, startTime time.Time, reason error) {
	duration := time.Since(startTime)
	GetMetrics().RecordRejection(operation, duration)
	LogInfo("operation rejected", "operation", operation, "duration", duration, "reason", reason)
}
