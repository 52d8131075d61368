package protocol

import "context"

type requestMetaKey struct{}

// RequestMeta holds transport-level facts about a request, such as the
// remote address of a websocket peer.
type RequestMeta map[string]string

// Well-known RequestMeta keys.
const (
	MetaTransport  = "transport"
	MetaRemoteAddr = "remote_addr"
)

// ContextWithRequestMeta returns a context carrying meta.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the request metadata, or nil.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// GetRequestMeta returns a single metadata value, or "" when absent.
func GetRequestMeta(ctx context.Context, key string) string {
	return RequestMetaFromContext(ctx)[key]
}
