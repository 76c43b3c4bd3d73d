package dashboard

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmreyes/backoffice-backend/api/middleware"
	"github.com/dmreyes/backoffice-backend/api/responses"
	internaldashboard "github.com/dmreyes/backoffice-backend/internal/dashboard"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
	"github.com/dmreyes/backoffice-backend/pkg/logger"
)

// Production returns the entity's fulfillment dashboard snapshot.
func Production(svc internaldashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID := middleware.EntityIDFromContext(r.Context())
		if entityID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "entity header is required"))
			return
		}
		snapshot, err := svc.Snapshot(r.Context(), entityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}
