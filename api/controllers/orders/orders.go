package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/backoffice-backend/api/middleware"
	"github.com/dmreyes/backoffice-backend/api/responses"
	"github.com/dmreyes/backoffice-backend/api/validators"
	internalorders "github.com/dmreyes/backoffice-backend/internal/orders"
	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
	"github.com/dmreyes/backoffice-backend/pkg/logger"
	"github.com/dmreyes/backoffice-backend/pkg/pagination"
)

type createOrderRequest struct {
	CustomerID      string            `json:"customer_id" validate:"required,uuid"`
	OrderNumber     string            `json:"order_number" validate:"required,max=64"`
	DefaultPriority int               `json:"default_priority" validate:"omitempty,min=1,max=9"`
	Notes           *string           `json:"notes" validate:"omitempty,max=2000"`
	Lines           []createOrderLine `json:"lines" validate:"required,min=1,dive"`
}

type createOrderLine struct {
	ProductID   *string         `json:"product_id" validate:"omitempty,uuid"`
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type shipOrderRequest struct {
	TrackingCarrier *string `json:"tracking_carrier" validate:"omitempty,max=100"`
	TrackingNumber  *string `json:"tracking_number" validate:"omitempty,max=100"`
}

type cancelOrderRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type needsAttentionRequest struct {
	Note *string `json:"note" validate:"omitempty,max=500"`
}

func requireEntityID(r *http.Request) (uuid.UUID, error) {
	entityID := middleware.EntityIDFromContext(r.Context())
	if entityID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "entity header is required")
	}
	return entityID, nil
}

func orderIDFromPath(r *http.Request) (uuid.UUID, error) {
	return validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
}

// Create registers a new order with its line snapshot.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID, err := requireEntityID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}

		input := internalorders.CreateInput{
			EntityID:        entityID,
			CustomerID:      customerID,
			OrderNumber:     strings.TrimSpace(req.OrderNumber),
			DefaultPriority: req.DefaultPriority,
			Notes:           req.Notes,
		}
		for _, line := range req.Lines {
			li := internalorders.LineInput{
				Description: strings.TrimSpace(line.Description),
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
			}
			if line.ProductID != nil {
				productID, err := uuid.Parse(*line.ProductID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
					return
				}
				li.ProductID = &productID
			}
			input.Lines = append(input.Lines, li)
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Detail returns one order with its lines.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// List returns a cursor-paginated page of entity-scoped orders, optionally
// filtered by customer and status.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID, err := requireEntityID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := internalorders.ListFilter{
			EntityID: entityID,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("customer_id")); raw != "" {
			customerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
				return
			}
			filter.CustomerID = &customerID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
				return
			}
			filter.Status = &status
		}

		page, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// Confirm moves an order from created to confirmed.
func Confirm(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc.Confirm, logg)
}

// StartFulfillment moves a confirmed order into the fulfillment stage.
func StartFulfillment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc.StartFulfillment, logg)
}

// Ship marks an order shipped and records tracking metadata.
func Ship(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req shipOrderRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Ship(r.Context(), orderID, internalorders.TrackingInput{
			Carrier: req.TrackingCarrier,
			Number:  req.TrackingNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// MarkDelivered records delivery of a shipped order.
func MarkDelivered(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc.MarkDelivered, logg)
}

// Complete closes out a delivered order.
func Complete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc.Complete, logg)
}

// Cancel cancels an order and releases any active holds.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req cancelOrderRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Cancel(r.Context(), orderID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// FlagNeedsAttention parks an order for manual review.
func FlagNeedsAttention(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req needsAttentionRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.FlagNeedsAttention(r.Context(), orderID, req.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func transitionHandler(fn func(ctx context.Context, orderID uuid.UUID) (*models.SalesOrder, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := fn(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
