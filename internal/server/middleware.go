package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/bft-labs/aq2rdb/internal/ports"
)

// requestLogger logs one line per request.
func requestLogger(logger ports.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				ports.String("method", r.Method),
				ports.String("path", r.URL.Path),
				ports.Int("status", ww.Status()),
				ports.Int("bytes", ww.BytesWritten()),
				ports.Duration("duration", time.Since(start)),
				ports.String("request_id", middleware.GetReqID(r.Context())),
				ports.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// rateLimiter rejects requests beyond a global token-bucket rate.
type rateLimiter struct {
	limiter *rate.Limiter
	logger  ports.Logger
}

func newRateLimiter(rps float64, burst int, logger ports.Logger) *rateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &rateLimiter{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Handler implements the rate limiting middleware.
func (rl *rateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow() {
			rl.logger.Warn("rate limit exceeded",
				ports.String("path", r.URL.Path),
				ports.String("remote_addr", r.RemoteAddr),
			)
			w.Header().Set("Retry-After", "1")
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, errorResponse{
				Error:     "rate limit exceeded",
				RequestID: middleware.GetReqID(r.Context()),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
