package movements

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmreyes/backoffice-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
)

func setupMovementsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:movements_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS stock_movements (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  entity_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  delta NUMERIC NOT NULL,
  reason TEXT NOT NULL,
  reference_type TEXT NOT NULL,
  reference_id TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME
);`
	if err := db.Exec(ddl).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestRecordAppendsAuditEntry(t *testing.T) {
	db := setupMovementsTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	productID := uuid.New()
	refID := uuid.New()
	input := RecordInput{
		EntityID:      uuid.New(),
		ProductID:     productID,
		Delta:         decimal.RequireFromString("-3"),
		Reason:        enums.MovementReasonFulfillment,
		ReferenceType: ReferenceAllocation,
		ReferenceID:   refID,
	}
	if err := svc.Record(ctx, db, input); err != nil {
		t.Fatalf("record: %v", err)
	}

	rows, err := svc.ListByProduct(ctx, productID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(rows))
	}
	if !rows[0].Delta.Equal(decimal.RequireFromString("-3")) {
		t.Fatalf("expected delta=-3, got %s", rows[0].Delta)
	}
	if rows[0].Reason != enums.MovementReasonFulfillment {
		t.Fatalf("expected fulfillment reason, got %s", rows[0].Reason)
	}
	if rows[0].ReferenceID != refID {
		t.Fatalf("expected reference %s, got %s", refID, rows[0].ReferenceID)
	}
}

func TestRecordSkipsZeroDelta(t *testing.T) {
	db := setupMovementsTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	productID := uuid.New()
	input := RecordInput{
		EntityID:      uuid.New(),
		ProductID:     productID,
		Delta:         decimal.Zero,
		Reason:        enums.MovementReasonAdjustment,
		ReferenceType: ReferenceAdjustment,
		ReferenceID:   uuid.New(),
	}
	if err := svc.Record(ctx, db, input); err != nil {
		t.Fatalf("record: %v", err)
	}

	rows, err := svc.ListByProduct(ctx, productID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no movement for zero delta, got %d", len(rows))
	}
}

func TestRecordValidatesReason(t *testing.T) {
	db := setupMovementsTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	input := RecordInput{
		EntityID:      uuid.New(),
		ProductID:     uuid.New(),
		Delta:         decimal.RequireFromString("1"),
		Reason:        enums.MovementReason("bogus"),
		ReferenceType: ReferenceAdjustment,
		ReferenceID:   uuid.New(),
	}
	err = svc.Record(context.Background(), db, input)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordRequiresTransaction(t *testing.T) {
	db := setupMovementsTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	input := RecordInput{
		EntityID:      uuid.New(),
		ProductID:     uuid.New(),
		Delta:         decimal.RequireFromString("1"),
		Reason:        enums.MovementReasonReceipt,
		ReferenceType: ReferencePurchaseOrder,
		ReferenceID:   uuid.New(),
	}
	err = svc.Record(context.Background(), nil, input)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
