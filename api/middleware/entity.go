package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmreyes/backoffice-backend/api/responses"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
	"github.com/dmreyes/backoffice-backend/pkg/logger"
)

const entityIDHeader = "X-Entity-Id"

// EntityContext reads the tenant header and scopes the request to it. The
// header is optional; a malformed value is rejected rather than ignored.
func EntityContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(entityIDHeader)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			entityID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "entity header must be a uuid"))
				return
			}

			ctx := WithEntityID(r.Context(), entityID)
			if logg != nil {
				ctx = logg.WithEntityID(ctx, entityID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
