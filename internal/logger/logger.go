package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/andrewwormald/execution/internal/errmeta"
)

type logger struct {
	log *slog.Logger
}

func (l logger) Debug(ctx context.Context, msg string, meta map[string]string) {
	l.log.DebugContext(ctx, msg, "meta", meta)
}

func (l logger) Error(ctx context.Context, err error) {
	meta := make(map[string]string)

	var em *errmeta.ErrMeta
	if errors.As(err, &em) {
		meta = em.Meta()
	}

	l.log.ErrorContext(ctx, err.Error(), "meta", meta)
}

func New(w io.Writer) *logger {
	// LevelDebug is set by default as the controller has a debug configuration.
	opts := slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	sl := slog.New(slog.NewJSONHandler(w, &opts))
	return &logger{
		log: sl,
	}
}
