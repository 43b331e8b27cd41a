package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Faqih001/Threads-WebApp/internal/auth"
)

// Logger returns a request logging middleware using zerolog. The session
// flag separates signed-in from anonymous traffic; websocket upgrades log
// once when the socket closes, so their latency is the session lifetime.
func Logger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			_, err := r.Cookie(auth.CookieName)
			hasSession := err == nil

			defer func() {
				evt := logger.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("latency", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("ip", RealIP(r)).
					Bool("session", hasSession)

				if strings.HasPrefix(r.URL.Path, "/ws") {
					evt.Msg("websocket session closed")
					return
				}
				evt.Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
