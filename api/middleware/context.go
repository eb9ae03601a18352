package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/hometechhq/installr-backend/internal/orders"
	"github.com/hometechhq/installr-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.ActorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.ActorRole); ok {
		return v
	}
	return ""
}

// ActorFromContext assembles the caller's identity for the core services.
func ActorFromContext(ctx context.Context) orders.Actor {
	return orders.Actor{
		ID:   UserIDFromContext(ctx),
		Role: RoleFromContext(ctx),
	}
}

// WithIdentity injects the caller's identity into the context.
func WithIdentity(ctx context.Context, userID uuid.UUID, role enums.ActorRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, role)
}
