package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

// Logger puts a request-scoped zerolog logger carrying the request id into
// the request context. An incoming X-Request-ID is reused.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		requestID := c.Request().Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Response().Header().Set(requestIDHeader, requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		ctx := logger.WithContext(c.Request().Context())

		c.SetRequest(c.Request().WithContext(ctx))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		latency := time.Since(start).Milliseconds()

		req := c.Request()
		res := c.Response()

		log.Ctx(req.Context()).Info().
			Str("method", req.Method).
			Str("endpoint", req.URL.Path).
			Int("status", res.Status).
			Int64("latency", latency).
			Msg("Request processed")

		return nil
	}
}
