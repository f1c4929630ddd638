package notify

import "context"

// routerActiveKey gates outbound sends: the attention router is the only
// caller permitted to set this, immediately around each delivery call, and
// must clear it afterward. Grounded on original_source's
// activate_router_context/deactivate_router_context pattern
// (src/attention/router.py), carried over as a context flag rather than a
// process-global so concurrent routing runs never interfere with each
// other (spec §4.5, §9).
type routerActiveCtxKey struct{}

// WithRouterActive returns a copy of ctx marked as router-active.
func WithRouterActive(ctx context.Context) context.Context {
	return context.WithValue(ctx, routerActiveCtxKey{}, true)
}

// IsRouterActive reports whether ctx was marked router-active. Transport
// implementations should refuse to send when this is false.
func IsRouterActive(ctx context.Context) bool {
	active, _ := ctx.Value(routerActiveCtxKey{}).(bool)
	return active
}
