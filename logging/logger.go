package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/vigil/pkg/paths"
	"github.com/grovetools/vigil/util/pathutil"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	files     = make(map[string]*os.File)
	current   Config
	forced    *logrus.Level
	loggersMu sync.Mutex
)

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()
	apply(logger, component, current)

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Configure installs the `logging` section of the loaded configuration and
// re-applies it to every logger handed out so far.
func Configure(cfg Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	current = cfg
	for component, entry := range loggers {
		apply(entry.Logger, component, cfg)
	}
}

// apply configures level, formatter and sinks. Callers hold loggersMu.
func apply(logger *logrus.Logger, component string, cfg Config) {
	levelStr := "info"
	if env := os.Getenv("VIGIL_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	if forced != nil {
		level = *forced
	}
	logger.SetLevel(level)

	logger.SetReportCaller(os.Getenv("VIGIL_LOG_CALLER") == "true" || cfg.ReportCaller)

	switch cfg.Format.Preset {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "simple":
		logger.SetFormatter(&TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}})
	default:
		logger.SetFormatter(&TextFormatter{Config: cfg.Format})
	}

	var writers []io.Writer

	if cfg.File.Enabled {
		logFilePath := pathutil.MustExpand(cfg.File.Path)
		if logFilePath == "" {
			if dir := paths.LogsDir(); dir != "" {
				logFilePath = filepath.Join(dir, fmt.Sprintf("%s-%s.log", component, time.Now().Format("2006-01-02")))
			}
		}
		if logFilePath != "" {
			if file, err := openSink(logFilePath); err == nil {
				writers = append(writers, file)
			} else {
				fmt.Fprintf(os.Stderr, "vigil: failed to open log file %s: %v\n", logFilePath, err)
			}
		}
	}

	shouldLogToStderr := false
	stderrMode := "auto"
	if cfg.Format.StructuredToStderr != "" {
		stderrMode = cfg.Format.StructuredToStderr
	}

	switch stderrMode {
	case "always":
		shouldLogToStderr = true
	case "never":
		shouldLogToStderr = false
	default:
		// auto: structured logs go to stderr when debugging or when nobody is
		// watching a terminal (cron, CI, pipes).
		isDebug := os.Getenv("VIGIL_DEBUG") == "1" || logger.GetLevel() >= logrus.DebugLevel
		isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		if isDebug || !isInteractive {
			shouldLogToStderr = true
		}
	}

	if shouldLogToStderr {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}
}

// openSink returns a shared append handle for path.
func openSink(path string) (*os.File, error) {
	if f, ok := files[path]; ok {
		return f, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	files[path] = f
	return f, nil
}

// SetLevel overrides the level of every logger, current and future. The
// --verbose flag uses it; it wins over VIGIL_LOG_LEVEL and the config file.
func SetLevel(level logrus.Level) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	forced = &level
	for _, entry := range loggers {
		entry.Logger.SetLevel(level)
	}
}
