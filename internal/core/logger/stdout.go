package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

type StdoutLogger struct {
	logger  *slog.Logger
	verbose bool
	exit    func(code int)
}

func initStdoutLogger(w io.Writer, serviceName string, verbose bool) (Logger, error) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})

	handlerWithAttrs := handler.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
	})

	return &StdoutLogger{
		logger:  slog.New(handlerWithAttrs),
		verbose: verbose,
		exit:    os.Exit,
	}, nil
}

func (l *StdoutLogger) Log(ctx context.Context, entry LogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	// attributes make local output noisy, so they are opt-in
	var attrs []any
	if l.verbose {
		attrs = make([]any, 0, len(entry.Attributes)*2+2)
		for key, value := range entry.Attributes {
			attrs = append(attrs, key, value)
		}
		if entry.Error != nil {
			attrs = append(attrs, "error", entry.Error.Error())
		}
	}

	switch entry.Level {
	case LogLevelDebug:
		l.logger.DebugContext(ctx, entry.Message, attrs...)
	case LogLevelInfo:
		l.logger.InfoContext(ctx, entry.Message, attrs...)
	case LogLevelWarn:
		l.logger.WarnContext(ctx, entry.Message, attrs...)
	case LogLevelError:
		l.logger.ErrorContext(ctx, entry.Message, attrs...)
	case LogLevelFatal:
		l.logger.ErrorContext(ctx, entry.Message, attrs...)
		l.exit(1)
	}
}

func (l *StdoutLogger) Shutdown(context.Context) error {
	return nil
}
