package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	logDirectoryCreationTemplateConstant = "unable to create log directory %s: %w"
	consoleMessageKeyConstant            = "message"
	logTimeKeyConstant                   = "ts"
	logFileMaximumSizeMegabytesConstant  = 10
	logFileMaximumBackupsConstant        = 5
	logFileMaximumAgeDaysConstant        = 7
	logDirectoryPermissionsConstant      = 0o755
)

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

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// LoggerOutputs bundles the loggers produced for a single CLI invocation.
type LoggerOutputs struct {
	// DiagnosticLogger carries fields and, when a log file is configured, mirrors every entry into it.
	DiagnosticLogger *zap.Logger
	// ConsoleLogger prints bare messages for human-readable progress output.
	ConsoleLogger *zap.Logger
}

// LoggerFactoryOption customizes a LoggerFactory.
type LoggerFactoryOption func(*LoggerFactory)

// WithLogOutput redirects terminal logging away from standard error.
func WithLogOutput(writer io.Writer) LoggerFactoryOption {
	return func(factory *LoggerFactory) {
		if writer != nil {
			factory.output = zapcore.AddSync(writer)
		}
	}
}

// LoggerFactory builds zap loggers sharing one level, encoding and destination.
type LoggerFactory struct {
	output zapcore.WriteSyncer
}

// NewLoggerFactory constructs a factory writing to standard error unless overridden.
func NewLoggerFactory(options ...LoggerFactoryOption) *LoggerFactory {
	factory := &LoggerFactory{output: os.Stderr}
	for _, option := range options {
		if option != nil {
			option(factory)
		}
	}
	return factory
}

// CreateLogger produces a logger honoring the requested level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, levelError := resolveLogLevel(requestedLogLevel)
	if levelError != nil {
		return nil, levelError
	}
	encoder, encoderError := newDiagnosticEncoder(requestedLogFormat)
	if encoderError != nil {
		return nil, encoderError
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(factory.output), zapLogLevel)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// CreateLoggerOutputs produces the diagnostic and console loggers. A non-empty logFilePath tees the
// diagnostic logger into a rotating JSON file.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat, logFilePath string) (LoggerOutputs, error) {
	diagnosticLogger, creationError := factory.CreateLogger(requestedLogLevel, requestedLogFormat)
	if creationError != nil {
		return LoggerOutputs{}, creationError
	}
	zapLogLevel := logLevelMapping[requestedLogLevel]

	if trimmedLogFilePath := strings.TrimSpace(logFilePath); len(trimmedLogFilePath) > 0 {
		fileCore, fileCoreError := newRotatingFileCore(trimmedLogFilePath, zapLogLevel)
		if fileCoreError != nil {
			return LoggerOutputs{}, fileCoreError
		}
		diagnosticLogger = diagnosticLogger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey: consoleMessageKeyConstant,
			LineEnding: zapcore.DefaultLineEnding,
		}),
		zapcore.Lock(factory.output),
		zapLogLevel,
	)

	return LoggerOutputs{
		DiagnosticLogger: diagnosticLogger,
		ConsoleLogger:    zap.New(consoleCore),
	}, nil
}

func resolveLogLevel(requestedLogLevel LogLevel) (zapcore.Level, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return zapcore.InfoLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}
	return zapLogLevel, nil
}

func newDiagnosticEncoder(requestedLogFormat LogFormat) (zapcore.Encoder, error) {
	encoderConfiguration := zap.NewProductionEncoderConfig()
	encoderConfiguration.TimeKey = logTimeKeyConstant
	encoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder

	switch requestedLogFormat {
	case LogFormatStructured:
		return zapcore.NewJSONEncoder(encoderConfiguration), nil
	case LogFormatConsole:
		encoderConfiguration.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfiguration), nil
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}
}

func newRotatingFileCore(logFilePath string, zapLogLevel zapcore.Level) (zapcore.Core, error) {
	logDirectory := filepath.Dir(logFilePath)
	if directoryError := os.MkdirAll(logDirectory, logDirectoryPermissionsConstant); directoryError != nil {
		return nil, fmt.Errorf(logDirectoryCreationTemplateConstant, logDirectory, directoryError)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    logFileMaximumSizeMegabytesConstant,
		MaxBackups: logFileMaximumBackupsConstant,
		MaxAge:     logFileMaximumAgeDaysConstant,
		Compress:   true,
	}

	fileEncoder, _ := newDiagnosticEncoder(LogFormatStructured)
	return zapcore.NewCore(fileEncoder, zapcore.AddSync(fileWriter), zapLogLevel), nil
}
