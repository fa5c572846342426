package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware returns a middleware that traces HTTP requests using OpenTelemetry
// It wraps the official otelgin middleware and adds custom span attributes
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	// Use official otelgin middleware as base
	base := otelgin.Middleware(serviceName)

	return func(c *gin.Context) {
		base(c)

		// Add custom span attributes after otelgin processes
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			// Tag the mastering/streaming identifiers a request carries, when
			// present — track id is a query param on the chunk-streaming
			// route and a path param on the fingerprint-status route; chunk
			// index and preset are chunk-streaming-only.
			if trackID := c.Query("track"); trackID != "" {
				span.SetAttributes(attribute.String("track.id", trackID))
			}
			if trackID := c.Param("id"); trackID != "" {
				span.SetAttributes(attribute.String("track.id", trackID))
			}

			if chunkIndex := c.Query("index"); chunkIndex != "" {
				span.SetAttributes(attribute.String("chunk.index", chunkIndex))
			}

			if preset := c.Query("preset"); preset != "" {
				span.SetAttributes(attribute.String("preset.name", preset))
			}

			// Record Gin errors as span events
			if len(c.Errors) > 0 {
				for _, ginErr := range c.Errors {
					if ginErr.Err != nil {
						span.RecordError(ginErr.Err, trace.WithStackTrace(true))
						span.SetStatus(codes.Error, ginErr.Error())
					}
				}
			}
		}
	}
}
