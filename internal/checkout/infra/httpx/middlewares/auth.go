package middlewares

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
	"github.com/jcmexdev/checkout-engine/internal/pkg/constants"
)

// RequireUser resolves the Authorization header to a user ID and stores it
// under constants.ContextKeyUserID. Requests without a resolvable principal
// are rejected with 401 before reaching any handler.
func RequireUser(identity ports.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := identity.CurrentUser(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
				return
			}
			ctx := context.WithValue(r.Context(), constants.ContextKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability gates a route on one capability. It assumes RequireUser
// already ran; a missing principal yields 401, a missing capability 403.
func RequireCapability(resolver ports.CapabilityResolver, cap entity.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := decide(r, resolver, cap)
			switch {
			case decision.IsAnonymous():
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			case decision.IsDenied():
				writeAuthError(w, http.StatusForbidden, "forbidden", decision.Reason())
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func decide(r *http.Request, resolver ports.CapabilityResolver, cap entity.Capability) entity.AuthDecision {
	userID, ok := r.Context().Value(constants.ContextKeyUserID).(uuid.UUID)
	if !ok {
		return entity.Unauthenticated()
	}
	caps, err := resolver.Resolve(r.Context(), userID)
	if err != nil {
		return entity.Denied("capability lookup failed")
	}
	if !caps[string(cap)] {
		return entity.Denied("missing capability: " + string(cap))
	}
	return entity.Allowed()
}

func writeAuthError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
