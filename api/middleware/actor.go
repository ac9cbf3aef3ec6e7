package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/oaklinehq/checkout-backend/api/responses"
	pkgerrors "github.com/oaklinehq/checkout-backend/pkg/errors"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
)

// The edge gateway terminates authentication and forwards the verified
// subject in X-User-Id. This service only validates and propagates it.
const userIDHeader = "X-User-Id"

type contextKey string

const ctxUserID contextKey = "user_id"

// Actor requires a verified user identity on the request and injects it
// into the context for handlers and the idempotency scope.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(userIDHeader)
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil || userID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user identity"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// UserIDFromContext returns the verified user identity, or uuid.Nil when
// the request was not authenticated.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}
