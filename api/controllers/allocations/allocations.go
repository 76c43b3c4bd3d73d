package allocations

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/backoffice-backend/api/middleware"
	"github.com/dmreyes/backoffice-backend/api/responses"
	"github.com/dmreyes/backoffice-backend/api/validators"
	internalallocations "github.com/dmreyes/backoffice-backend/internal/allocations"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
	"github.com/dmreyes/backoffice-backend/pkg/logger"
	"github.com/dmreyes/backoffice-backend/pkg/pagination"
)

type allocateRequest struct {
	OrderID                 string          `json:"order_id" validate:"required,uuid"`
	ProductID               string          `json:"product_id" validate:"required,uuid"`
	Quantity                decimal.Decimal `json:"quantity"`
	Priority                *int            `json:"priority" validate:"omitempty,min=1,max=9"`
	ExpectedFulfillmentDate *time.Time      `json:"expected_fulfillment_date"`
}

type autoAllocateRequest struct {
	Priority *int `json:"priority" validate:"omitempty,min=1,max=9"`
}

type fulfillRequest struct {
	Quantity *decimal.Decimal `json:"quantity"`
	Notes    *string          `json:"notes" validate:"omitempty,max=500"`
}

func allocationIDFromPath(r *http.Request) (uuid.UUID, error) {
	return validators.ParsePathUUID(chi.URLParam(r, "allocationId"), "allocationId")
}

// Create holds stock for one order/product pair. Partial coverage is a
// successful outcome, not an error.
func Create(svc internalallocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID := middleware.EntityIDFromContext(r.Context())
		if entityID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "entity header is required"))
			return
		}

		var req allocateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		result, err := svc.Allocate(r.Context(), internalallocations.AllocateInput{
			EntityID:                entityID,
			OrderID:                 orderID,
			ProductID:               productID,
			Quantity:                req.Quantity,
			Priority:                req.Priority,
			ExpectedFulfillmentDate: req.ExpectedFulfillmentDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AutoAllocate walks an order's lines and holds stock for every line that can
// still be covered, reporting a per-line outcome.
func AutoAllocate(svc internalallocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID := middleware.EntityIDFromContext(r.Context())
		if entityID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "entity header is required"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req autoAllocateRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.AutoAllocate(r.Context(), entityID, orderID, req.Priority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		allocated := 0
		for _, res := range results {
			if res.Allocation != nil {
				allocated++
			}
		}
		responses.WriteSuccess(w, map[string]any{
			"order_id":        orderID,
			"lines_allocated": allocated,
			"results":         results,
		})
	}
}

// Fulfill consumes held stock. A missing quantity fulfills the full balance.
func Fulfill(svc internalallocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allocationID, err := allocationIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req fulfillRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Fulfill(r.Context(), internalallocations.FulfillInput{
			AllocationID: allocationID,
			Quantity:     req.Quantity,
			Notes:        req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// Cancel releases an active hold back to available stock.
func Cancel(svc internalallocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allocationID, err := allocationIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Cancel(r.Context(), allocationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// Detail returns one allocation record.
func Detail(svc internalallocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allocationID, err := allocationIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Get(r.Context(), allocationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// List returns entity-scoped allocations with optional order, product
// and status filters.
func List(svc internalallocations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID := middleware.EntityIDFromContext(r.Context())
		if entityID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "entity header is required"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := internalallocations.ListFilter{EntityID: entityID, Limit: limit}

		if raw := strings.TrimSpace(r.URL.Query().Get("order_id")); raw != "" {
			orderID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
				return
			}
			filter.OrderID = &orderID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("product_id")); raw != "" {
			productID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			filter.ProductID = &productID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseAllocationStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid allocation status"))
				return
			}
			filter.Status = &status
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
