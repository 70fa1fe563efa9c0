package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/id"
	"github.com/heyprompt/heyprompt-server/internal/logger"
	"github.com/heyprompt/heyprompt-server/internal/service"
	"github.com/heyprompt/heyprompt-server/internal/sse"
)

// requestLogger stores a logger tagged with the request id in the context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), l)))
	})
}

// identifyMiddleware resolves who is calling. A valid bearer token identifies a
// user; otherwise a device id from the X-Anonymous-ID header or the anonymous_id
// query parameter identifies an anonymous visitor. Invalid credentials are
// ignored here; handlers that need a user reject the request themselves.
func identifyMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			v := viewer{
				DeviceID: deviceIDFrom(r),
				Client: service.ClientInfo{
					IPAddress: getClientIP(r),
					UserAgent: r.UserAgent(),
				},
			}

			if token, ok := bearerToken(r); ok {
				if claims, err := auth.VerifyAccessToken(ctx, token); err == nil {
					v.UserID = claims.UserID
					v.IsAdmin = claims.IsAdmin
				}
			}

			ctx = withViewer(ctx, v)
			if r.Header.Get(HeaderDoNotTrack) == "1" {
				ctx = analytics.WithDoNotTrack(ctx, true)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func deviceIDFrom(r *http.Request) string {
	deviceID := r.Header.Get(HeaderAnonymousID)
	if deviceID == "" {
		deviceID = r.URL.Query().Get(QueryAnonymousID)
	}
	if !id.IsDeviceID(deviceID) {
		return ""
	}
	return deviceID
}

// identifyStream admits event streams from signed-in users and identified devices.
func identifyStream(r *http.Request) (sse.Identity, error) {
	v := viewerFrom(r.Context())
	if v.UserID == "" && v.DeviceID == "" {
		return sse.Identity{}, errUnidentified
	}
	return sse.Identity{UserID: v.UserID, DeviceID: v.DeviceID, IsAdmin: v.IsAdmin}, nil
}
