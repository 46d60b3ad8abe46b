package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dragon-forge/internal/config"
)

var (
	writerMu sync.RWMutex
	writer   io.Writer = os.Stdout
	fileOut  *rotatingWriter
)

// Init configures the global zerolog logger. With cfg.File set, logs go to stdout and the file.
func Init(cfg config.LogConfig) error {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var out io.Writer = os.Stdout
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	raw := io.Writer(os.Stdout)
	if path := strings.TrimSpace(cfg.File); path != "" {
		w, err := newRotatingWriter(path, cfg.MaxMB)
		if err != nil {
			return err
		}
		out = zerolog.MultiLevelWriter(out, w)
		raw = io.MultiWriter(os.Stdout, w)
		writerMu.Lock()
		if fileOut != nil {
			_ = fileOut.Close()
		}
		fileOut = w
		writerMu.Unlock()
	}

	writerMu.Lock()
	writer = raw
	writerMu.Unlock()

	zerolog.SetGlobalLevel(level)
	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	logger := ctx.Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return nil
}

// Writer is the raw destination for other structured loggers, such as the HTTP access log.
func Writer() io.Writer {
	writerMu.RLock()
	defer writerMu.RUnlock()
	return writer
}

// Close releases the log file, if any.
func Close() error {
	writerMu.Lock()
	defer writerMu.Unlock()
	if fileOut == nil {
		return nil
	}
	err := fileOut.Close()
	fileOut = nil
	return err
}
