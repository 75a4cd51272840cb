// Package logging builds the zap loggers used across macroext.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to stderr. Debug output is
// suppressed unless debug is set.
func New(debug bool) *zap.SugaredLogger {
	log, err := Build(debug, "stderr")
	if err != nil {
		panic(err)
	}
	return log
}

// Build is New with explicit output paths, as accepted by zap.Config.
func Build(debug bool, paths ...string) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("04:05.000")
	if len(paths) > 0 {
		cfg.OutputPaths = paths
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	lvl := zapcore.InfoLevel
	if debug {
		lvl = zapcore.DebugLevel
	}
	log = log.WithOptions(zap.IncreaseLevel(lvl), zap.AddStacktrace(zapcore.FatalLevel))
	return log.Sugar(), nil
}
