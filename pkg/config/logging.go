package config

import (
	"errors"
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	catlog "github.com/cpswtree/catree/pkg/log"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the runtime logger. Output goes to the rotating log file
// when File is set and to fallback otherwise. Closing the returned closer
// closes the file.
func (l LogConfig) NewLogger(fallback io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(l.Level)
	if err != nil {
		return nil, nil, err
	}

	w := fallback
	var closer io.Closer = nopCloser{}
	if l.File != "" {
		lj := l.rotating(l.File)
		w, closer = lj, lj
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h), closer, nil
}

// ProtocolLogger opens the protocol capture file, rotated like the runtime
// log. It returns nil when no capture file is configured.
func (l LogConfig) ProtocolLogger() *catlog.FileLogger {
	if l.Protocol == "" {
		return nil
	}
	return catlog.NewWriterLogger(l.rotating(l.Protocol))
}

func (l LogConfig) rotating(file string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   file,
		MaxSize:    l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAgeDays,
		Compress:   l.Compress,
	}
}

// Loggers are the loggers of a running command.
type Loggers struct {
	// Runtime is the structured runtime logger.
	Runtime *slog.Logger

	// Protocol receives protocol events; nil when neither a capture file
	// nor debug logging is configured.
	Protocol catlog.Logger

	closers []io.Closer
}

// Open builds the runtime logger and the protocol logger. At debug level
// protocol events are also written to the runtime logger. Transport frames are
// captured only with ProtocolFrames.
func (l LogConfig) Open(fallback io.Writer) (*Loggers, error) {
	runtime, closer, err := l.NewLogger(fallback)
	if err != nil {
		return nil, err
	}
	out := &Loggers{Runtime: runtime, closers: []io.Closer{closer}}

	var sinks []catlog.Logger
	if pl := l.ProtocolLogger(); pl != nil {
		sinks = append(sinks, pl)
		out.closers = append(out.closers, pl)
	}
	if level, _ := ParseLevel(l.Level); level <= slog.LevelDebug {
		sinks = append(sinks, catlog.NewSlogAdapter(runtime))
	}

	if len(sinks) > 0 {
		out.Protocol = catlog.Tee(sinks...)
		if !l.ProtocolFrames {
			out.Protocol = catlog.WithoutFrames(out.Protocol)
		}
	}
	return out, nil
}

// Close closes the log files in reverse order of opening.
func (l *Loggers) Close() error {
	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
