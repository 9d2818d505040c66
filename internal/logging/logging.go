package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogseq "github.com/sokkalf/slog-seq"

	"github.com/leengari/mini-optimizer/internal/config"
)

// fanout hands each record to every sink whose level admits it.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}

// SetupLogger builds the process logger from cfg and returns a cleanup
// function. Records go to stderr and, when a Seq URL is configured, to Seq.
func SetupLogger(cfg config.LogConfig) (*slog.Logger, func()) {
	return setup(cfg, os.Stderr)
}

func setup(cfg config.LogConfig, w io.Writer) (*slog.Logger, func()) {
	level := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}

	var console slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		console = slog.NewJSONHandler(w, opts)
	} else {
		console = slog.NewTextHandler(w, opts)
	}
	if cfg.SeqURL == "" {
		return slog.New(console), func() {}
	}

	_, seq := slogseq.NewLogger(
		cfg.SeqURL,
		slogseq.WithBatchSize(1),
		slogseq.WithFlushInterval(500*time.Millisecond),
		slogseq.WithHandlerOptions(&slog.HandlerOptions{Level: level, AddSource: true}),
	)
	if seq == nil {
		return slog.New(console), func() {}
	}
	return slog.New(fanout{console, seq}), func() { seq.Close() }
}
