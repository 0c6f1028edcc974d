package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotating log file inside the log directory.
const FileName = "tourstats.log"

// Options controls the global logger.
type Options struct {
	Verbose bool
	// Dir overrides LOGS_FOLDER and the binary-relative default.
	Dir string
	// Console disables the stderr sink when false.
	Console bool
}

// Init installs the global logger with a console sink on stderr and a
// rotating file. It returns the log file path.
func Init(opts Options) (string, error) {
	// LOGS_FOLDER may only be defined in the .env beside the binary, and
	// Init runs before config.Load.
	exePath, exeErr := os.Executable()
	if exeErr == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	logDir := ResolveDir(opts.Dir, exePath, exeErr)
	if err := ensureWritable(logDir); err != nil {
		return "", err
	}
	logFile := filepath.Join(logDir, FileName)

	fileWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    16, // megabytes
		MaxBackups: 8,
		MaxAge:     90, // days
		Compress:   true,
	}

	writers := []io.Writer{fileWriter}
	if opts.Console {
		isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger()
	return logFile, nil
}

// ResolveDir picks the log directory: explicit, then LOGS_FOLDER, then
// logs/ next to the binary, then ./logs.
func ResolveDir(explicit, exePath string, exeErr error) string {
	if explicit != "" {
		return explicit
	}
	if dir := os.Getenv("LOGS_FOLDER"); dir != "" {
		return dir
	}
	if exeErr == nil && exePath != "" {
		return filepath.Join(filepath.Dir(exePath), "logs")
	}
	return "logs"
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		return fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)
	return nil
}

// NewRun returns a run identifier and a logger tagged with it.
func NewRun(operation string) (string, zerolog.Logger) {
	id := uuid.NewString()
	return id, log.With().Str("run_id", id).Str("operation", operation).Logger()
}
