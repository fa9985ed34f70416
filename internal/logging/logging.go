package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFile is the rotating log file name inside the log directory.
const LogFile = "ticket-kpi.log"

// Init sets the global logger. Records go to stderr (stdout carries the MCP stream) and to a
// rotating file. LOG_LEVEL overrides the level chosen by verbose; LOG_FORMAT=json switches the
// console sink to raw JSON.
func Init(verbose bool) {
	// Init runs before config.Load, so the binary's .env has to be read here for LOGS_FOLDER.
	exePath, exeErr := os.Executable()
	if exeErr == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}

	zerolog.SetGlobalLevel(resolveLevel(verbose, os.Getenv("LOG_LEVEL")))

	logDir := resolveLogDir(exePath, exeErr)
	if logDir == "" {
		logDir = "logs"
	}
	file, err := fileSink(logDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(consoleSink(os.Getenv("LOG_FORMAT")), file)).
		With().
		Timestamp().
		Logger()
}

// resolveLevel maps LOG_LEVEL names onto zerolog levels. Unknown names fall back to verbose.
func resolveLevel(verbose bool, name string) zerolog.Level {
	if name != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name))); err == nil && lvl != zerolog.NoLevel {
			return lvl
		}
	}
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func consoleSink(format string) io.Writer {
	if strings.EqualFold(format, "json") {
		return os.Stderr
	}
	fd := os.Stderr.Fd()
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd),
	}
}

// fileSink creates dir if needed, checks it is writable and returns a rotating writer into it.
func fileSink(dir string) (io.Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return nil, fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, LogFile),
		MaxSize:    16, // megabytes
		MaxBackups: 32,
		MaxAge:     365, // days
		Compress:   true,
	}, nil
}

// resolveLogDir picks LOGS_FOLDER, else a logs directory next to the executable.
func resolveLogDir(exePath string, exeErr error) string {
	if dir := os.Getenv("LOGS_FOLDER"); dir != "" {
		return dir
	}
	if exeErr != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(exePath), "logs")
}
