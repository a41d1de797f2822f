// Package middleware holds the cross-cutting HTTP filters: request logging,
// panic recovery, and prometheus instrumentation.
package middleware

import (
	"github.com/emicklei/go-restful/v3"
)

// ErrorResponse is the JSON body for every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError writes an ErrorResponse with the given status.
func WriteError(resp *restful.Response, status int, message string) {
	_ = resp.WriteHeaderAndEntity(status, ErrorResponse{Error: message})
}
