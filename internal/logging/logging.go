// Package logging bootstraps the process-wide structured logger:
// go.uber.org/zap writing through gopkg.in/natefinch/lumberjack.v2 for
// rotation. It is threaded through Session, the dispatcher and the
// transport as an explicit field rather than read from a package
// global, except for Fallback, used before New has run.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fallback is usable before New constructs the real logger, e.g. while
// parsing configuration.
var Fallback = zap.NewNop().Sugar()

// New builds a *zap.SugaredLogger writing both to stderr and, if
// filePath is non-empty, to a rotated file at filePath. Before opening
// the new file it renames any prior log at filePath out of the way to
// filePath+".last".
func New(filePath, level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:      "ts",
		LevelKey:     "level",
		NameKey:      "logger",
		CallerKey:    "caller",
		MessageKey:   "msg",
		LineEnding:   zapcore.DefaultLineEnding,
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	encoder := zapcore.NewConsoleEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), lvl),
	}

	if filePath != "" {
		os.Rename(filePath, filePath+".last")

		lj := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(lj), lvl))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger.Sugar(), nil
}
