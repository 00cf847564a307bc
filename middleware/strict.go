package middleware

import (
	"net/http"

	goGate "github.com/MrEthical07/goGate"
)

// RequireStrict is Guard with fail-open disabled regardless of opts: a
// store outage always answers 503.
func RequireStrict(engine *goGate.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := newOptions(opts)
	o.failOpen = false
	return guard(engine, o)
}
