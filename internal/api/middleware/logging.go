package middleware

import (
	"log/slog"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
)

// RequestIDAttribute is the request attribute under which the per-request
// UUID is stored. Handlers can read it for correlation.
const RequestIDAttribute = "request_id"

// RequestLogger tags every request with a UUID, echoes it in the
// X-Request-ID response header, and logs one line per request after the
// chain completes.
func RequestLogger(logger *slog.Logger) restful.FilterFunction {
	if logger == nil {
		logger = slog.Default()
	}
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		start := time.Now()
		requestID := uuid.NewString()
		req.SetAttribute(RequestIDAttribute, requestID)
		resp.AddHeader("X-Request-ID", requestID)

		chain.ProcessFilter(req, resp)

		logger.Info("http_request",
			slog.String("request_id", requestID),
			slog.String("method", req.Request.Method),
			slog.String("path", req.Request.URL.Path),
			slog.Int("status", resp.StatusCode()),
			slog.Int("bytes", resp.ContentLength()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
