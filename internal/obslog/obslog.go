package obslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultLogFile = "logs/numguess.log"

var (
	mu           sync.RWMutex
	globalLogger = zap.NewNop()
	openFile     *os.File
)

// L returns the process logger. It is a no-op logger until Init runs.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Options selects the logger's sinks and encoding.
type Options struct {
	Level   string
	Console bool
	File    bool
	Path    string
	Caller  bool
	// Format is legacy, json or console.
	Format string
	// Stderr receives console output; os.Stderr when nil.
	Stderr io.Writer
}

// OptionsFromEnv overlays LOG_* variables on def.
func OptionsFromEnv(def Options) Options {
	o := def
	o.Level = getenvDefault("LOG_LEVEL", firstNonEmpty(def.Level, "info"))
	o.Console = getenvBool("LOG_TO_CONSOLE", def.Console)
	o.File = getenvBool("LOG_TO_FILE", def.File)
	o.Caller = getenvBool("LOG_CALLER", def.Caller)
	o.Format = getenvDefault("LOG_FORMAT", firstNonEmpty(def.Format, "legacy"))
	o.Path = getenvDefault("LOG_FILE", firstNonEmpty(def.Path, DefaultLogFile))
	return o
}

// InitFromEnv builds the global logger from the environment with console
// and file output enabled by default.
func InitFromEnv() error {
	return Init(OptionsFromEnv(Options{Console: true, File: true}))
}

// Init replaces the global logger, closing any log file opened by a
// previous call.
func Init(o Options) error {
	logger, f, err := build(o)
	if err != nil {
		return err
	}
	mu.Lock()
	prev := openFile
	globalLogger, openFile = logger, f
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}

func build(o Options) (*zap.Logger, *os.File, error) {
	level := parseLevel(o.Level)
	format := normalizeFormat(o.Format)
	stderr := o.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var cores []zapcore.Core
	if o.Console {
		cores = append(cores, zapcore.NewCore(encoderFor(format), zapcore.AddSync(stderr), level))
	}

	var f *os.File
	if o.File {
		path := strings.TrimSpace(o.Path)
		if path == "" {
			path = DefaultLogFile
		}
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		var err error
		f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoderFor(format), zapcore.AddSync(f), level))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil, nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if o.Caller || format == "legacy" {
		logger = logger.WithOptions(zap.AddCaller())
	}
	logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, f, nil
}

func normalizeFormat(s string) string {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "json", "console":
		return f
	default:
		return "legacy"
	}
}

func encoderFor(format string) zapcore.Encoder {
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "console":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig())
	default:
		return zapcore.NewConsoleEncoder(legacyEncoderConfig())
	}
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvBool(k string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return def
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func legacyEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " | "
	return cfg
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
