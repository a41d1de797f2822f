package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/emicklei/go-restful/v3"
)

// RecoverPanic converts handler panics into a 500 ErrorResponse so a single
// bad request cannot take the server down. The panic value and stack are
// logged; the client sees a generic message.
func RecoverPanic(logger *slog.Logger, metrics *Metrics) restful.FilterFunction {
	if logger == nil {
		logger = slog.Default()
	}
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if metrics != nil {
				metrics.IncPanic()
			}
			logger.Error("handler_panic",
				slog.String("method", req.Request.Method),
				slog.String("path", req.Request.URL.Path),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			WriteError(resp, http.StatusInternalServerError, "internal server error")
		}()
		chain.ProcessFilter(req, resp)
	}
}
