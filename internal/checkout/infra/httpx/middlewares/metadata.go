package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/checkout-engine/internal/pkg/constants"
)

// AttachRequestMetadata copies the request ID and the client's idempotency
// key into the context under typed keys. Both the standard Idempotency-Key
// header and the legacy x- form are accepted; the standard one wins.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(constants.HeaderIdempotencyKey)
		if idempotencyKey == "" {
			idempotencyKey = r.Header.Get(constants.HeaderXIdempotencyKey)
		}

		ctx := context.WithValue(r.Context(), constants.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, idempotencyKey)

		w.Header().Set(constants.HeaderXRequestId, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
