package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/matiasleandrokruk/relengjira/internal/api/ctxkeys"
)

type requestInfoKey struct{}

// requestInfo is filled in by inner middleware for the access log line.
type requestInfo struct {
	subject string
}

// noteSubject records the authenticated subject for RequestLogger, if it is
// further out in the chain.
func noteSubject(ctx context.Context, subject string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.subject = subject
	}
}

// RequestLogger logs one line per request through logger, including
// requests rejected by inner middleware. Expected after RequestID.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			info := &requestInfo{}
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			}
			subject := info.subject
			if subject == "" {
				subject, _ = ctxkeys.SubjectFrom(r.Context())
			}
			if subject != "" {
				attrs = append(attrs, "subject", subject)
			}
			logger.InfoContext(r.Context(), "http request", attrs...)
		})
	}
}
