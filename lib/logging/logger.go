package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const FormatConsole = "console"

// Configure sets up the global zerolog logger. Format "console" gives human-readable output, anything else JSON.
func Configure(level zerolog.Level, format string) {
	configure(os.Stdout, level, format)
}

func configure(out io.Writer, level zerolog.Level, format string) {
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

// AppendCtx returns a context whose logger (see log.Ctx) carries the given field.
// When the context holds a valid span, its trace and span IDs are added as well.
func AppendCtx(ctx context.Context, key string, value string) context.Context {
	logCtx := log.Ctx(ctx).With().Str(key, value)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		logCtx = logCtx.
			Str(FieldTraceID, spanCtx.TraceID().String()).
			Str(FieldSpanID, spanCtx.SpanID().String())
	}
	return logCtx.Logger().WithContext(ctx)
}
