package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *zap.Logger

// FileSink describes an optional rotated log file written next to the console output.
type FileSink struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

func InitProd(sink *FileSink) *zap.Logger {
	return initLogger(zap.NewProductionConfig(), sink)
}

func InitDev(sink *FileSink) *zap.Logger {
	return initLogger(zap.NewDevelopmentConfig(), sink)
}

func initLogger(config zap.Config, sink *FileSink) *zap.Logger {
	var err error
	logger, err = config.Build(zap.AddStacktrace(zap.WarnLevel))
	if err != nil {
		fmt.Printf("Failed to init zap logger: %v", err)
		os.Exit(1)
	}

	if sink != nil && len(sink.Path) > 0 {
		rotated := zapcore.AddSync(&lumberjack.Logger{
			Filename:   sink.Path,
			MaxSize:    sink.MaxSizeMB,
			MaxBackups: sink.MaxBackups,
			Compress:   true,
		})
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), rotated, config.Level)
		logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	zap.ReplaceGlobals(logger)
	return logger
}

func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
