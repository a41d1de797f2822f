package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"github.com/devseek/devseek/internal/api/middleware"
	"github.com/devseek/devseek/internal/telemetry"
)

// RegisterRoutes mounts all /api/v1 routes on the container.
func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.
		Route(ws.GET("/search").
			To(handler.Search).
			Doc("Search repositories, models, and discussions").
			Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
			Param(ws.QueryParameter("q", "Search query (3-1000 characters)").DataType("string").Required(true)).
			Param(ws.QueryParameter("sources", "Comma-separated source filter (code_host, model_hub, discussion)").DataType("string").Required(false)).
			Param(ws.QueryParameter("limit", "Maximum merged results (1-100, default 30)").DataType("integer").Required(false)).
			Param(ws.QueryParameter("refresh", "Bypass the response cache").DataType("boolean").Required(false)).
			Writes(SearchResponse{}).
			Returns(200, "OK", SearchResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/search").
			To(handler.SearchPost).
			Doc("Search repositories, models, and discussions").
			Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
			Reads(SearchRequest{}).
			Writes(SearchResponse{}).
			Returns(200, "OK", SearchResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/trending").
			To(handler.Trending).
			Doc("Trending repositories, models, and discussions").
			Metadata(restfulspec.KeyOpenAPITags, []string{"trending"}).
			Writes(TrendingResponse{}).
			Returns(200, "OK", TrendingResponse{}).
			Returns(503, "Service Unavailable", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.GET("/stats").
			To(handler.Stats).
			Doc("Query telemetry snapshot").
			Metadata(restfulspec.KeyOpenAPITags, []string{"stats"}).
			Writes(telemetry.QueryMetricsSnapshot{}).
			Returns(200, "OK", telemetry.QueryMetricsSnapshot{}).
			Returns(503, "Service Unavailable", middleware.ErrorResponse{}))

	container.Add(ws)
}
