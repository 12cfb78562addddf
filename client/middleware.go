package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Middleware wraps a RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain applies middlewares to base. Chain(base, a, b) returns a(b(base)).
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		base = mws[i](base)
	}
	return base
}

// RateLimit blocks each request until lim grants a token or the request
// context ends.
func RateLimit(lim *rate.Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := lim.Wait(req.Context()); err != nil {
				if req.Body != nil {
					req.Body.Close()
				}
				return nil, fmt.Errorf("rate limit: %w", err)
			}
			return next.RoundTrip(req)
		})
	}
}

// Logging logs every round trip with a generated request id.
func Logging() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			id := uuid.NewString()
			start := time.Now()

			resp, err := next.RoundTrip(req)

			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", req.Method),
				zap.String("url", sanitizeURL(req.URL)),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			l := Logger()
			if err != nil {
				l.Warn("http request failed", append(fields, zap.Error(err))...)
				return resp, err
			}
			fields = append(fields, zap.Int("status", resp.StatusCode))
			if resp.StatusCode >= 400 {
				l.Warn("http request", fields...)
			} else {
				l.Debug("http request", fields...)
			}
			return resp, err
		})
	}
}

const tracerName = "github.com/wippyai/crabhttp/client"

// Tracing records a client span per round trip and propagates the W3C trace
// context to the server.
func Tracing(tp trace.TracerProvider) Middleware {
	tracer := tp.Tracer(tracerName)
	prop := propagation.TraceContext{}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			ctx, span := tracer.Start(req.Context(), "HTTP "+req.Method,
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("url.full", sanitizeURL(req.URL)),
					attribute.String("server.address", req.URL.Hostname()),
				))
			defer span.End()

			req = req.Clone(ctx)
			prop.Inject(ctx, propagation.HeaderCarrier(req.Header))

			resp, err := next.RoundTrip(req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
			if resp.StatusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
			}
			return resp, nil
		})
	}
}

var sensitiveParams = []string{
	"token",
	"password",
	"auth",
	"secret",
	"key",
	"credential",
}

// sanitizeURL redacts credentials and sensitive query parameters for logs.
func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	safe := *u
	if safe.User != nil {
		safe.User = url.User("[REDACTED]")
	}
	if safe.RawQuery != "" {
		q := safe.Query()
		for param := range q {
			if isSensitiveParam(param) {
				q.Set(param, "[REDACTED]")
			}
		}
		safe.RawQuery = q.Encode()
	}
	return safe.String()
}

func isSensitiveParam(param string) bool {
	lower := strings.ToLower(param)
	for _, s := range sensitiveParams {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
