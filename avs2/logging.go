/*
DESCRIPTION
  logging.go wires up the decoder's structured logger. It follows the shape
  of the teacher's cmd/rv and cmd/looper mains, which build a lumberjack
  logger to handle log-file rotation before wiring a higher-level logger on
  top of it; here that higher-level logger is zap rather than a bespoke
  AusOcean netsender logger, since this package has no netsender client to
  share one with.
*/

package avs2dec

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel selects the verbosity of the decoder's logger, passed in via
// Config per spec.md section 6 ("info-log level").
type LogLevel int

const (
	LogError LogLevel = iota
	LogInfo
	LogDebug
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogDebug:
		return zapcore.DebugLevel
	case LogInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.ErrorLevel
	}
}

// newLogger builds a *zap.SugaredLogger for a decoder manager. When
// logPath is non-empty, output is rotated through lumberjack; otherwise it
// goes to stderr via zap's default development encoder.
func newLogger(level LogLevel, logPath string) *zap.SugaredLogger {
	enc := zap.NewDevelopmentEncoderConfig()
	encoder := zapcore.NewConsoleEncoder(enc)

	var ws zapcore.WriteSyncer
	if logPath != "" {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	} else {
		ws = zapcore.Lock(zapcore.AddSync(os.Stderr))
	}

	core := zapcore.NewCore(encoder, ws, level.zapLevel())
	return zap.New(core).Sugar()
}
