package audit

import "context"

// requestMetaKey is an unexported context key carrying best-effort request
// provenance through internal layers. HTTP middleware resolves the client IP
// and user-agent and attaches them with WithRequestMeta.

type requestMetaKey struct{}

type requestMeta struct {
	IPAddress string
	UserAgent string
}

func WithRequestMeta(ctx context.Context, ip, userAgent string) context.Context {
	if ip == "" && userAgent == "" {
		return ctx
	}
	return context.WithValue(ctx, requestMetaKey{}, requestMeta{IPAddress: ip, UserAgent: userAgent})
}

func requestMetaFromContext(ctx context.Context) requestMeta {
	if ctx == nil {
		return requestMeta{}
	}
	if m, ok := ctx.Value(requestMetaKey{}).(requestMeta); ok {
		return m
	}
	return requestMeta{}
}
