// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log         *zap.Logger
	AppLog      *zap.SugaredLogger
	InitLog     *zap.SugaredLogger
	ConfigLog   *zap.SugaredLogger
	GinLog      *zap.SugaredLogger
	AuthLog     *zap.SugaredLogger
	QosLog      *zap.SugaredLogger
	PcfLog      *zap.SugaredLogger
	NotifLog    *zap.SugaredLogger
	CapifLog    *zap.SugaredLogger
	atomicLevel zap.AtomicLevel
)

func init() {
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	config := zap.Config{
		Level:            atomicLevel,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""

	var err error
	log, err = config.Build()
	if err != nil {
		panic(err)
	}

	AppLog = log.Sugar().With("component", "NEF", "category", "App")
	InitLog = log.Sugar().With("component", "NEF", "category", "Init")
	ConfigLog = log.Sugar().With("component", "NEF", "category", "CONFIG")
	GinLog = log.Sugar().With("component", "NEF", "category", "GIN")
	AuthLog = log.Sugar().With("component", "NEF", "category", "Auth")
	QosLog = log.Sugar().With("component", "NEF", "category", "QosMgmt")
	PcfLog = log.Sugar().With("component", "NEF", "category", "PCF")
	NotifLog = log.Sugar().With("component", "NEF", "category", "Notifier")
	CapifLog = log.Sugar().With("component", "NEF", "category", "CAPIF")
}

func GetLogger() *zap.Logger {
	return log
}

// SetLogLevel: set the log level (panic|fatal|error|warn|info|debug)
func SetLogLevel(level zapcore.Level) {
	InitLog.Infoln("set log level:", level)
	atomicLevel.SetLevel(level)
}
