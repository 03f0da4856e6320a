package httpmiddleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InjectLogger stores lg in the request context, annotated with the request
// ID when RequestID runs earlier in the chain.
func InjectLogger(lg *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := lg
			if id := RequestIDFromContext(r.Context()); id != "" {
				l = l.With(zap.String("request_id", id))
			}
			next.ServeHTTP(w, r.WithContext(zctx.Base(r.Context(), l)))
		})
	}
}

type routeKey struct{}

// routeInfo is filled by Route once the mux has matched a pattern.
type routeInfo struct {
	pattern string
}

// Route names the matched route for logs, traces and metrics. Register it
// innermost, around each handler passed to the mux.
func Route(pattern string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if ri, ok := ctx.Value(routeKey{}).(*routeInfo); ok {
				ri.pattern = pattern
			}
			trace.SpanFromContext(ctx).SetName(pattern)
			if labeler, ok := otelhttp.LabelerFromContext(ctx); ok {
				labeler.Add(attribute.String("http.route", pattern))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LogRequests logs every completed request with its matched route, status
// code and duration.
func LogRequests() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ri := &routeInfo{}
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), routeKey{}, ri)))

			route := ri.pattern
			if route == "" {
				route = "unmatched"
			}
			status := sw.code()
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("size", sw.size),
				zap.Duration("duration", time.Since(start)),
			}
			lg := zctx.From(r.Context())
			switch {
			case status >= http.StatusInternalServerError:
				lg.Warn("Request failed", fields...)
			default:
				lg.Debug("Request", fields...)
			}
		})
	}
}
