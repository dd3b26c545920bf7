package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext returns the request logger, or one over slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// Middleware stores logger in every request context, tagged with the request
// ID returned by requestID when it is non-empty.
func Middleware(logger *Logger, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if requestID != nil {
				if id := requestID(r); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), l)))
		})
	}
}

// StructuredLogger emits the domain events of the service with a fixed set
// of fields.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs a finished request at a level matching its status.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP)
	sl.logger.WithComponent(ComponentHTTP).Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogTransactionCreated(ctx context.Context, id, kind, amount, category, source string) {
	fields := NewFields().
		WithTransaction(id, kind, amount, category, source).
		WithOperation(OpCreate)
	sl.logger.WithComponent(ComponentLedger).InfoContext(ctx, "Transaction created", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogTransactionsImported(ctx context.Context, count int) {
	fields := NewFields().
		WithCount(count).
		WithOperation(OpImport)
	sl.logger.WithComponent(ComponentLedger).InfoContext(ctx, "Transactions imported", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogTransactionDeleted(ctx context.Context, id string) {
	fields := NewFields().
		WithOperation(OpDelete)
	fields[FieldTransactionID] = id
	sl.logger.WithComponent(ComponentLedger).InfoContext(ctx, "Transaction deleted", fields.ToSlice()...)
}

// LogReportServed logs which authority produced a served report.
func (sl *StructuredLogger) LogReportServed(ctx context.Context, authority, dataSource, sortField, sortDirection string, rows int) {
	fields := NewFields().
		WithReport(authority, dataSource, sortField, sortDirection).
		WithCount(rows).
		WithOperation(OpReport)
	sl.logger.WithComponent(ComponentReport).DebugContext(ctx, "Report served", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogExport(ctx context.Context, reportType, filename string) {
	fields := NewFields().
		WithOperation(OpExport)
	fields[FieldReportType] = reportType
	fields["filename"] = filename
	sl.logger.WithComponent(ComponentExport).InfoContext(ctx, "Report exported", fields.ToSlice()...)
}

// LogError logs err with its component, operation and error class.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation, errorType string) {
	fields := NewFields().
		WithError(err).
		WithErrorType(errorType).
		WithOperation(operation)
	sl.logger.WithComponent(component).ErrorContext(ctx, msg, fields.ToSlice()...)
}
