package middleware

import (
	"net/http"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorHandler logs errors attached with c.Error. When the handler has not
// written a response yet the client gets a generic 500 without internals.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Err(err.Err).
			Msg("request failed")

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
		}
	}
}

// Recovery turns panics into 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Interface("panic", r).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
			}
		}()
		c.Next()
	}
}

// Logger logs each request with method, path, status, latency and request_id.
// Server errors log at error level, client errors at warn.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zerolog.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zerolog.WarnLevel
		}
		log.WithLevel(level).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("actor", Actor(c)).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
