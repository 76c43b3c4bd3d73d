package receiving

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/backoffice-backend/api/responses"
	"github.com/dmreyes/backoffice-backend/api/validators"
	internalreceiving "github.com/dmreyes/backoffice-backend/internal/receiving"
	"github.com/dmreyes/backoffice-backend/pkg/logger"
)

type receiveRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Notes    *string         `json:"notes" validate:"omitempty,max=500"`
}

// ReceiveLine books a supplier delivery against one purchase order line and
// returns the updated line with the recomputed parent status.
func ReceiveLine(svc internalreceiving.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := validators.ParsePathUUID(chi.URLParam(r, "lineId"), "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req receiveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Receive(r.Context(), internalreceiving.ReceiveInput{
			LineID:   lineID,
			Quantity: req.Quantity,
			Notes:    req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
