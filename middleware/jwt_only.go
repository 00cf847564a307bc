package middleware

import (
	"net/http"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/internal/gate"
)

// RequireJWTOnly authenticates the bearer token without touching the rate
// limit store. Use it for routes that need an identity but no throttling.
func RequireJWTOnly(engine *goGate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeUnauthenticated(w)
				return
			}

			ctx := goGate.WithClientIP(r.Context(), ClientIP(r))
			token, _ := gate.BearerToken(r.Header.Get("Authorization"))

			identity, err := engine.Resolve(ctx, token)
			if err != nil {
				writeUnauthenticated(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(goGate.WithIdentity(ctx, identity)))
		})
	}
}
