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
	logFileDirectoryPermissions          = 0o755
	defaultLogMaxSizeMegabytes           = 10
	defaultLogMaxBackups                 = 3
	defaultLogMaxAgeDays                 = 28
	timeEncoderKeyConstant               = "time"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Supported log formats.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// SupportedLogLevels lists levels in increasing severity.
func SupportedLogLevels() []string {
	return []string{logLevelDebugStringConstant, logLevelInfoStringConstant, logLevelWarnStringConstant, logLevelErrorStringConstant}
}

// SupportedLogFormats lists accepted formats.
func SupportedLogFormats() []string {
	return []string{logFormatStructuredStringConstant, logFormatConsoleStringConstant}
}

// IsHumanReadable reports whether the format renders sentences rather than structured fields.
func (format LogFormat) IsHumanReadable() bool {
	return format == LogFormatConsole
}

// LogRotation configures the optional rotating log file.
type LogRotation struct {
	MaxSizeMegabytes int  `mapstructure:"max_size_mb"`
	MaxBackups       int  `mapstructure:"max_backups"`
	MaxAgeDays       int  `mapstructure:"max_age_days"`
	Compress         bool `mapstructure:"compress"`
}

// LoggerOptions selects level, format and sinks of a logger.
type LoggerOptions struct {
	Level    LogLevel
	Format   LogFormat
	FilePath string
	Rotation LogRotation
	// Output receives the primary log stream. Standard error is used when nil.
	Output io.Writer
}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger builds a logger writing to the primary output and, when a file path is set, to a rotating file.
// The file always receives JSON records.
func (factory *LoggerFactory) CreateLogger(options LoggerOptions) (*zap.Logger, error) {
	requestedLevel := LogLevel(strings.ToLower(strings.TrimSpace(string(options.Level))))
	zapLogLevel, levelExists := logLevelMapping[requestedLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, options.Level)
	}

	requestedFormat := LogFormat(strings.ToLower(strings.TrimSpace(string(options.Format))))
	var primaryEncoder zapcore.Encoder
	switch requestedFormat {
	case LogFormatStructured:
		primaryEncoder = zapcore.NewJSONEncoder(structuredEncoderConfig())
	case LogFormatConsole:
		primaryEncoder = zapcore.NewConsoleEncoder(consoleEncoderConfig())
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, options.Format)
	}

	output := options.Output
	if output == nil {
		output = os.Stderr
	}
	levelEnabler := zap.NewAtomicLevelAt(zapLogLevel)
	cores := []zapcore.Core{zapcore.NewCore(primaryEncoder, zapcore.Lock(zapcore.AddSync(output)), levelEnabler)}

	if filePath := strings.TrimSpace(options.FilePath); len(filePath) > 0 {
		fileSink, sinkError := newRotatingFileSink(filePath, options.Rotation)
		if sinkError != nil {
			return nil, sinkError
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(structuredEncoderConfig()), zapcore.AddSync(fileSink), levelEnabler))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func newRotatingFileSink(filePath string, rotation LogRotation) (*lumberjack.Logger, error) {
	if mkdirError := os.MkdirAll(filepath.Dir(filePath), logFileDirectoryPermissions); mkdirError != nil {
		return nil, mkdirError
	}
	sink := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    defaultLogMaxSizeMegabytes,
		MaxBackups: defaultLogMaxBackups,
		MaxAge:     defaultLogMaxAgeDays,
		Compress:   rotation.Compress,
	}
	if rotation.MaxSizeMegabytes > 0 {
		sink.MaxSize = rotation.MaxSizeMegabytes
	}
	if rotation.MaxBackups > 0 {
		sink.MaxBackups = rotation.MaxBackups
	}
	if rotation.MaxAgeDays > 0 {
		sink.MaxAge = rotation.MaxAgeDays
	}
	return sink, nil
}

func structuredEncoderConfig() zapcore.EncoderConfig {
	configuration := zap.NewProductionEncoderConfig()
	configuration.TimeKey = timeEncoderKeyConstant
	configuration.EncodeTime = zapcore.ISO8601TimeEncoder
	return configuration
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	configuration := zap.NewDevelopmentEncoderConfig()
	configuration.TimeKey = ""
	configuration.CallerKey = ""
	configuration.NameKey = ""
	configuration.EncodeLevel = zapcore.CapitalLevelEncoder
	return configuration
}
