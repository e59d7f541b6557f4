package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logLevelDebugStringConstant            = "debug"
	logLevelInfoStringConstant             = "info"
	logLevelWarnStringConstant             = "warn"
	logLevelErrorStringConstant            = "error"
	logFormatStructuredStringConstant      = "structured"
	logFormatConsoleStringConstant         = "console"
	logTimeKeyConstant                     = "time"
	unsupportedLogLevelTemplateConstant    = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant   = "unsupported log format: %s"
	defaultLogFileMaxSizeMegabytesConstant = 10
	defaultLogFileMaxBackupsConstant       = 5
	defaultLogFileMaxAgeDaysConstant       = 30
)

// LogFileOptions configures the rotated log file that mirrors console output.
type LogFileOptions struct {
	Path             string `mapstructure:"path"`
	MaxSizeMegabytes int    `mapstructure:"max_size_mb"`
	MaxBackups       int    `mapstructure:"max_backups"`
	MaxAgeDays       int    `mapstructure:"max_age_days"`
}

// Enabled reports whether a log file path was configured.
func (options LogFileOptions) Enabled() bool {
	return len(strings.TrimSpace(options.Path)) > 0
}

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// LoggerFactory builds zap.Logger instances that write to a console stream and optionally to a rotated file.
type LoggerFactory struct {
	console zapcore.WriteSyncer
}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// NewLoggerFactory constructs a factory that logs to standard error.
func NewLoggerFactory() *LoggerFactory {
	return NewLoggerFactoryWithConsole(os.Stderr)
}

// NewLoggerFactoryWithConsole constructs a factory that logs to console instead of standard error.
func NewLoggerFactoryWithConsole(console io.Writer) *LoggerFactory {
	return &LoggerFactory{console: zapcore.Lock(zapcore.AddSync(console))}
}

// CreateLogger produces a zap.Logger honoring the requested log level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	return factory.CreateLoggerWithFile(requestedLogLevel, requestedLogFormat, LogFileOptions{})
}

// CreateLoggerWithFile produces a zap.Logger that also writes JSON entries to a rotated log file when one is configured.
// File entries are always JSON.
func (factory *LoggerFactory) CreateLoggerWithFile(requestedLogLevel LogLevel, requestedLogFormat LogFormat, fileOptions LogFileOptions) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[LogLevel(strings.ToLower(string(requestedLogLevel)))]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoderConfiguration := zap.NewProductionEncoderConfig()
	encoderConfiguration.TimeKey = logTimeKeyConstant
	encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder

	var consoleEncoder zapcore.Encoder
	switch LogFormat(strings.ToLower(string(requestedLogFormat))) {
	case LogFormatStructured:
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfiguration)
	case LogFormatConsole:
		consoleConfiguration := encoderConfiguration
		consoleConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		consoleEncoder = zapcore.NewConsoleEncoder(consoleConfiguration)
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder, factory.console, zapLogLevel)}
	if fileOptions.Enabled() {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfiguration),
			zapcore.AddSync(newRotatingFileWriter(fileOptions)),
			zapLogLevel,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.ErrorOutput(factory.console)), nil
}

func newRotatingFileWriter(fileOptions LogFileOptions) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   strings.TrimSpace(fileOptions.Path),
		MaxSize:    positiveOrDefault(fileOptions.MaxSizeMegabytes, defaultLogFileMaxSizeMegabytesConstant),
		MaxBackups: positiveOrDefault(fileOptions.MaxBackups, defaultLogFileMaxBackupsConstant),
		MaxAge:     positiveOrDefault(fileOptions.MaxAgeDays, defaultLogFileMaxAgeDaysConstant),
	}
}

func positiveOrDefault(value int, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
