package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Method records how a request proved its identity.
type Method string

const (
	MethodSession Method = "session"
	MethodBearer  Method = "bearer"
)

type principal struct {
	uid    uuid.UUID
	method Method
}

type principalKey struct{}

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("authentication required")

// WithPrincipal marks ctx as authenticated as uid.
func WithPrincipal(ctx context.Context, uid uuid.UUID, m Method) context.Context {
	return context.WithValue(ctx, principalKey{}, principal{uid: uid, method: m})
}

// UIDFromCtx returns the uid stored by RequireAuth.
func UIDFromCtx(ctx context.Context) (uuid.UUID, error) {
	p, ok := ctx.Value(principalKey{}).(principal)
	if !ok || p.uid == uuid.Nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return p.uid, nil
}

// MethodFromCtx reports how the request authenticated, or "" if it did not.
func MethodFromCtx(ctx context.Context) Method {
	p, _ := ctx.Value(principalKey{}).(principal)
	return p.method
}
