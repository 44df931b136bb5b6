package observability

import "context"

type clientInfoKey struct{}

// ClientInfo carries the request's source IP and user-agent string.
// It is attached to the context at the edge of the router so auditing
// never reads ambient global request state.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// WithClientInfo attaches client info to the context.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientFromContext returns the client info attached to the context.
func ClientFromContext(ctx context.Context) (ClientInfo, bool) {
	info, ok := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info, ok
}
