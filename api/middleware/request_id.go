package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/yupvendas/storebot/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags each request with an id so dashboard calls can be correlated
// across log lines. An id supplied by the caller is kept; otherwise one is
// minted. The id is echoed on the response and seeded into the request logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
