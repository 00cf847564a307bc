package middleware

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/internal/gate"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// IdentityFromContext returns the identity admitted by Guard or RequireJWTOnly.
var IdentityFromContext = goGate.IdentityFromContext

// Guard authenticates the bearer token and then counts the request against
// the caller's budget for the resource. Rejections are answered here:
//
//   - 401 with WWW-Authenticate: Bearer for any authentication failure
//   - 429 with Retry-After when the budget is spent
//   - 503 when the store is unavailable, unless WithFailOpen is set
func Guard(engine *goGate.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := newOptions(opts)
	return guard(engine, o)
}

func guard(engine *goGate.Engine, o options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeUnauthenticated(w)
				return
			}

			ctx := goGate.WithClientIP(r.Context(), ClientIP(r))
			token, _ := gate.BearerToken(r.Header.Get("Authorization"))
			resource := o.resource(r)

			identity, d, err := engine.Admit(ctx, token, resource)
			switch {
			case err == nil:
			case errors.Is(err, goGate.ErrUnauthenticated):
				writeUnauthenticated(w)
				return
			case errors.Is(err, goGate.ErrStoreUnavailable):
				if !o.failOpen {
					writeDetail(w, http.StatusServiceUnavailable, detailUnavailable)
					return
				}
				o.logger.Warn("rate limit store unavailable, failing open",
					zap.String("resource", resource),
					zap.Error(err),
				)
				next.ServeHTTP(w, r.WithContext(goGate.WithIdentity(ctx, identity)))
				return
			default:
				o.logger.Error("admit failed", zap.Error(err))
				writeDetail(w, http.StatusInternalServerError, detailInternal)
				return
			}

			setLimitHeaders(w, d)
			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds()))
				writeDetail(w, http.StatusTooManyRequests, detailTooManyRequests)
				return
			}

			next.ServeHTTP(w, r.WithContext(goGate.WithIdentity(ctx, identity)))
		})
	}
}

func setLimitHeaders(w http.ResponseWriter, d goGate.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining()))
}

// RoutePattern keys requests by their chi route pattern, so /items/1 and
// /items/2 share the budget of /items/{id}. Outside chi routing it falls back
// to the URL path.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are not trusted.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
