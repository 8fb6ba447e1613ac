package utils

import (
	"time"

	"github.com/labstack/echo"
	"github.com/rs/zerolog"
)

// ZeroLogger logs one line per request, at a level following the response
// status. Successful lookups log at debug.
func ZeroLogger(logger *zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			event := logger.WithLevel(statusLevel(res.Status)).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Int64("bytes_out", res.Size).
				Str("id", id).
				Str("method", req.Method).
				Str("path", c.Path()).
				Str("remote_ip", c.RealIP())

			if address := c.Param("address"); address != "" {
				event = event.Str("address", address)
			}
			if lang := c.QueryParam("lang"); lang != "" {
				event = event.Str("lang", lang)
			}

			event.Msg("request")

			return nil
		}
	}
}

func statusLevel(status int) zerolog.Level {
	switch {
	case status >= 500:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	default:
		return zerolog.DebugLevel
	}
}
