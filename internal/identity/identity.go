// Package identity carries the caller's bearer token and subject through a
// request's context.Context so outbound clients can forward them without
// every signature taking a token parameter.
//
// Values live only in the context tree of the request that set them. There
// is no package-level state.
package identity

import "context"

type ctxKey int

const (
	tokenKey ctxKey = iota
	subjectKey
)

// WithToken returns a child context carrying the bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// Token returns the bearer token stored in ctx. Blank tokens count as absent.
func Token(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Clear returns a child context in which the token and subject are absent.
// Cancellation and deadlines of ctx still apply.
func Clear(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, tokenKey, "")
	return context.WithValue(ctx, subjectKey, "")
}

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

func Subject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	if !ok || subject == "" {
		return "", false
	}
	return subject, true
}
