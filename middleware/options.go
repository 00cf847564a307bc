package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// Option configures Guard.
type Option func(*options)

type options struct {
	resource func(*http.Request) string
	failOpen bool
	logger   *zap.Logger
}

func newOptions(opts []Option) options {
	o := options{
		resource: RoutePattern,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.resource == nil {
		o.resource = RoutePattern
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// WithResource replaces RoutePattern as the function naming the resource a
// request counts against. It must return a stable string per endpoint.
func WithResource(fn func(*http.Request) string) Option {
	return func(o *options) { o.resource = fn }
}

// WithFailOpen lets requests through, unthrottled, while the store is unavailable.
func WithFailOpen(enabled bool) Option {
	return func(o *options) { o.failOpen = enabled }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}
