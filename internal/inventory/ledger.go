package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
)

// maxReserveAttempts bounds the clamp-and-update retry loop when concurrent
// writers race on the same product row.
const maxReserveAttempts = 3

// Ledger is the only component allowed to mutate inventory counters. Every
// method runs inside the caller's transaction so stock changes commit or roll
// back together with the business state that caused them.
type Ledger interface {
	// Reserve holds up to requested units and returns the quantity actually
	// granted. A short or missing stock row grants less, down to zero; the
	// caller decides whether a partial grant is acceptable.
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, requested decimal.Decimal) (decimal.Decimal, error)
	// Release returns previously reserved units to the available pool.
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty decimal.Decimal) error
	// Consume removes reserved units from stock entirely (physical fulfillment).
	Consume(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty decimal.Decimal) error
	// Receive adds units to on-hand and available, creating the stock row on
	// first receipt.
	Receive(ctx context.Context, tx *gorm.DB, entityID, productID uuid.UUID, qty decimal.Decimal) error
	// Get loads the current counters for a product.
	Get(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.InventoryItem, error)
}

type ledger struct{}

// NewLedger returns the default inventory ledger.
func NewLedger() Ledger {
	return ledger{}
}

func (ledger) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, requested decimal.Decimal) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory reserve")
	}
	if requested.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity cannot be negative")
	}
	if requested.IsZero() {
		return decimal.Zero, nil
	}

	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		var item models.InventoryItem
		err := tx.WithContext(ctx).Where("product_id = ?", productID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		if err != nil {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
		}

		granted := decimal.Min(requested, item.AvailableQty)
		if granted.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, nil
		}

		res := tx.WithContext(ctx).Exec(`
			UPDATE inventory_items
			SET reserved_qty = reserved_qty + ?,
				available_qty = available_qty - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE product_id = ? AND available_qty >= ?
		`, granted, granted, productID, granted)
		if res.Error != nil {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve inventory")
		}
		if res.RowsAffected == 1 {
			return granted, nil
		}
		// lost a race against another writer, re-read and clamp again
	}
	return decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict, "could not reserve inventory, concurrent updates exhausted retries")
}

func (ledger) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory release")
	}
	if qty.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "release quantity cannot be negative")
	}
	if qty.IsZero() {
		return nil
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET reserved_qty = reserved_qty - ?,
			available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND reserved_qty >= ?
	`, qty, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "release exceeds reserved quantity")
	}
	return nil
}

func (ledger) Consume(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory consume")
	}
	if qty.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "consume quantity cannot be negative")
	}
	if qty.IsZero() {
		return nil
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET reserved_qty = reserved_qty - ?,
			on_hand_qty = on_hand_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND reserved_qty >= ? AND on_hand_qty >= ?
	`, qty, qty, productID, qty, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "consume inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "consume exceeds reserved stock")
	}
	return nil
}

func (ledger) Receive(ctx context.Context, tx *gorm.DB, entityID, productID uuid.UUID, qty decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory receive")
	}
	if qty.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "receive quantity cannot be negative")
	}
	if qty.IsZero() {
		return nil
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET on_hand_qty = on_hand_qty + ?,
			available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ?
	`, qty, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "receive inventory")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// first receipt for this product
	item := models.InventoryItem{
		ProductID:    productID,
		EntityID:     entityID,
		OnHandQty:    qty,
		ReservedQty:  decimal.Zero,
		AvailableQty: qty,
	}
	if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory item")
	}
	return nil
}

func (ledger) Get(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.InventoryItem, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory read")
	}
	var item models.InventoryItem
	err := tx.WithContext(ctx).Where("product_id = ?", productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return &item, nil
}
