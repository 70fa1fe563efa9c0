package api

import (
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/ratelimit"
)

// rateLimited returns a huma middleware limiting an operation per client IP.
func (s *Server) rateLimited(limiter *ratelimit.KeyedRateLimiter) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key := viewerFrom(ctx.Context()).Client.IPAddress
		if !limiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded",
				"ip", key,
				"operation", ctx.Operation().OperationID,
			)
			ctx.SetHeader("Retry-After", "60")
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many requests",
				domainerrors.RateLimited("too many requests, please try again later"))
			return
		}
		next(ctx)
	}
}

// getClientIP returns the client address without its port.
// chi's RealIP middleware has already applied X-Forwarded-For and X-Real-IP.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
