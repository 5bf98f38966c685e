package goSession

import "context"

type contextKey int

const refreshReasonKey contextKey = iota

// WithRefreshReason annotates ctx with the reason a refresh was demanded
// ("expiry", "rejected", "preflight", ...). The reason appears in audit
// event metadata; it has no effect on refresh behavior.
func WithRefreshReason(ctx context.Context, reason string) context.Context {
	if reason == "" {
		return ctx
	}
	return context.WithValue(ctx, refreshReasonKey, reason)
}

func refreshReasonFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	reason, _ := ctx.Value(refreshReasonKey).(string)
	return reason
}
