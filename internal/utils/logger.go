package utils

import (
    "strings"
    "sync"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

var (
    logMu     sync.RWMutex
    appLogger *zap.Logger
)

// InitLogger builds the process logger.  Production uses sampled ISO-8601
// output without stack traces; other environments get the development
// encoder with coloured levels.  format is "json" or "console".
func InitLogger(env, level, format string) (*zap.Logger, error) {
    var cfg zap.Config
    if env == "production" {
        cfg = zap.NewProductionConfig()
        cfg.EncoderConfig.TimeKey = "timestamp"
        cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
        cfg.DisableStacktrace = true
    } else {
        cfg = zap.NewDevelopmentConfig()
        cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    }
    cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
    if format == "json" {
        cfg.Encoding = "json"
        cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
    } else {
        cfg.Encoding = "console"
    }
    cfg.OutputPaths = []string{"stdout"}
    cfg.ErrorOutputPaths = []string{"stderr"}

    l, err := cfg.Build(zap.AddCaller())
    if err != nil {
        return nil, err
    }
    SetLogger(l)
    zap.ReplaceGlobals(l)
    return l, nil
}

// SetLogger swaps the process logger; tests use it with zap.NewNop.
func SetLogger(l *zap.Logger) {
    logMu.Lock()
    appLogger = l
    logMu.Unlock()
}

// Logger returns the process logger, or a no-op logger before InitLogger.
func Logger() *zap.Logger {
    logMu.RLock()
    defer logMu.RUnlock()
    if appLogger == nil {
        return zap.NewNop()
    }
    return appLogger
}

// SyncLogger flushes buffered entries.
func SyncLogger() {
    _ = Logger().Sync()
}

func parseLevel(level string) zapcore.Level {
    switch strings.ToLower(level) {
    case "debug":
        return zapcore.DebugLevel
    case "warn", "warning":
        return zapcore.WarnLevel
    case "error":
        return zapcore.ErrorLevel
    default:
        return zapcore.InfoLevel
    }
}
