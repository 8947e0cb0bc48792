package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger used by packages that are not handed
// one explicitly.
var Logger = logrus.New()

const TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

type LogConfig struct {
	File   string `json:"file"`   // empty: no log file
	Level  string `json:"level"`  // trace|debug|info|warn|error|critical
	Format string `json:"format"` // text|json
	Stdout bool   `json:"stdout"`
}

// ParseLevel accepts the logrus level names plus "critical", which maps to
// the error level.
func ParseLevel(s string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return logrus.InfoLevel, nil
	case "critical":
		return logrus.ErrorLevel, nil
	default:
		return logrus.ParseLevel(s)
	}
}

// SetupLogger configures Logger from cfg. The returned closer closes the log
// file, if one was opened.
func SetupLogger(cfg LogConfig) (io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	Logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: TimestampFormat,
		})
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: TimestampFormat,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
		closer = f
	}
	if cfg.Stdout || len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	Logger.SetOutput(io.MultiWriter(writers...))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
