package receiving

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmreyes/backoffice-backend/internal/inventory"
	"github.com/dmreyes/backoffice-backend/internal/movements"
	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
	"github.com/dmreyes/backoffice-backend/pkg/outbox"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupReceivingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:receiving_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	ddls := []string{
		`CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  entity_id TEXT NOT NULL,
  supplier_id TEXT NOT NULL,
  order_number TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  ordered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS purchase_order_lines (
  id TEXT PRIMARY KEY,
  entity_id TEXT NOT NULL,
  purchase_order_id TEXT NOT NULL,
  product_id TEXT,
  description TEXT NOT NULL,
  quantity NUMERIC NOT NULL,
  quantity_received NUMERIC NOT NULL DEFAULT 0,
  unit_cost NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
  product_id TEXT PRIMARY KEY,
  entity_id TEXT NOT NULL,
  on_hand_qty NUMERIC NOT NULL DEFAULT 0,
  reserved_qty NUMERIC NOT NULL DEFAULT 0,
  available_qty NUMERIC NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  entity_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  delta NUMERIC NOT NULL,
  reason TEXT NOT NULL,
  reference_type TEXT NOT NULL,
  reference_id TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	}
	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func newReceivingService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	moveSvc, err := movements.NewService(movements.NewRepository(db))
	if err != nil {
		t.Fatalf("movement service: %v", err)
	}
	svc, err := NewService(
		NewRepository(db),
		testTxRunner{db: db},
		inventory.NewLedger(),
		moveSvc,
		outbox.NewService(outbox.NewRepository(db), nil),
		nil,
	)
	if err != nil {
		t.Fatalf("receiving service: %v", err)
	}
	return svc
}

type poSeed struct {
	status enums.PurchaseOrderStatus
	lines  []lineSeed
}

type lineSeed struct {
	productID *uuid.UUID
	ordered   string
	received  string
}

func seedPurchaseOrder(t *testing.T, db *gorm.DB, seed poSeed) (*models.PurchaseOrder, []models.PurchaseOrderLine) {
	t.Helper()

	entityID := uuid.New()
	po := &models.PurchaseOrder{
		ID:          uuid.New(),
		EntityID:    entityID,
		SupplierID:  uuid.New(),
		OrderNumber: "PO-1001",
		Status:      seed.status,
	}
	if err := db.Create(po).Error; err != nil {
		t.Fatalf("seed purchase order: %v", err)
	}

	var lines []models.PurchaseOrderLine
	for _, ls := range seed.lines {
		line := models.PurchaseOrderLine{
			ID:               uuid.New(),
			EntityID:         entityID,
			PurchaseOrderID:  po.ID,
			ProductID:        ls.productID,
			Description:      "component",
			Quantity:         decimal.RequireFromString(ls.ordered),
			QuantityReceived: decimal.RequireFromString(ls.received),
		}
		if err := db.Create(&line).Error; err != nil {
			t.Fatalf("seed line: %v", err)
		}
		lines = append(lines, line)
	}
	return po, lines
}

func TestReceivePartialDelivery(t *testing.T) {
	db := setupReceivingTestDB(t)
	svc := newReceivingService(t, db)
	productID := uuid.New()
	po, lines := seedPurchaseOrder(t, db, poSeed{
		status: enums.PurchaseOrderStatusSent,
		lines: []lineSeed{
			{productID: &productID, ordered: "10", received: "0"},
		},
	})
	item := models.InventoryItem{
		ProductID:    productID,
		EntityID:     po.EntityID,
		OnHandQty:    decimal.RequireFromString("2"),
		AvailableQty: decimal.RequireFromString("2"),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	result, err := svc.Receive(context.Background(), ReceiveInput{
		LineID:   lines[0].ID,
		Quantity: decimal.RequireFromString("4"),
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !result.Line.QuantityReceived.Equal(decimal.RequireFromString("4")) {
		t.Fatalf("expected received=4, got %s", result.Line.QuantityReceived)
	}
	if result.ParentStatus != enums.PurchaseOrderStatusPartialReceived {
		t.Fatalf("expected partial_received, got %s", result.ParentStatus)
	}

	var updated models.InventoryItem
	if err := db.Where("product_id = ?", productID).First(&updated).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if !updated.OnHandQty.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("expected on-hand=6, got %s", updated.OnHandQty)
	}
	if !updated.AvailableQty.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("expected available=6, got %s", updated.AvailableQty)
	}

	var movementCount int64
	if err := db.Model(&models.StockMovement{}).Where("reference_id = ?", lines[0].ID).Count(&movementCount).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movementCount != 1 {
		t.Fatalf("expected 1 movement, got %d", movementCount)
	}
}

func TestReceiveCompletesLineButNotParentWhileSiblingOpen(t *testing.T) {
	db := setupReceivingTestDB(t)
	svc := newReceivingService(t, db)
	productID := uuid.New()
	_, lines := seedPurchaseOrder(t, db, poSeed{
		status: enums.PurchaseOrderStatusAcknowledged,
		lines: []lineSeed{
			{productID: &productID, ordered: "10", received: "6"},
			{productID: nil, ordered: "3", received: "0"},
		},
	})
	item := models.InventoryItem{ProductID: productID, EntityID: uuid.New()}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	result, err := svc.Receive(context.Background(), ReceiveInput{
		LineID:   lines[0].ID,
		Quantity: decimal.RequireFromString("4"),
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !result.Line.QuantityReceived.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("expected received=10, got %s", result.Line.QuantityReceived)
	}
	if result.ParentStatus != enums.PurchaseOrderStatusPartialReceived {
		t.Fatalf("open sibling must keep parent at partial_received, got %s", result.ParentStatus)
	}
}

func TestReceiveFinalLineFlipsParentToReceived(t *testing.T) {
	db := setupReceivingTestDB(t)
	svc := newReceivingService(t, db)
	po, lines := seedPurchaseOrder(t, db, poSeed{
		status: enums.PurchaseOrderStatusPartialReceived,
		lines: []lineSeed{
			{productID: nil, ordered: "5", received: "5"},
			{productID: nil, ordered: "3", received: "1"},
		},
	})

	result, err := svc.Receive(context.Background(), ReceiveInput{
		LineID:   lines[1].ID,
		Quantity: decimal.RequireFromString("2"),
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if result.ParentStatus != enums.PurchaseOrderStatusReceived {
		t.Fatalf("expected received, got %s", result.ParentStatus)
	}

	var parent models.PurchaseOrder
	if err := db.Where("id = ?", po.ID).First(&parent).Error; err != nil {
		t.Fatalf("load parent: %v", err)
	}
	if parent.Status != enums.PurchaseOrderStatusReceived {
		t.Fatalf("parent status not persisted, got %s", parent.Status)
	}
}

func TestReceiveOverReceiptLeavesEverythingUnchanged(t *testing.T) {
	db := setupReceivingTestDB(t)
	svc := newReceivingService(t, db)
	productID := uuid.New()
	po, lines := seedPurchaseOrder(t, db, poSeed{
		status: enums.PurchaseOrderStatusSent,
		lines: []lineSeed{
			{productID: &productID, ordered: "10", received: "8"},
		},
	})
	item := models.InventoryItem{
		ProductID:    productID,
		EntityID:     po.EntityID,
		OnHandQty:    decimal.RequireFromString("8"),
		AvailableQty: decimal.RequireFromString("8"),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	_, err := svc.Receive(context.Background(), ReceiveInput{
		LineID:   lines[0].ID,
		Quantity: decimal.RequireFromString("5"),
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeOverReceipt {
		t.Fatalf("expected over receipt, got %v", err)
	}

	var line models.PurchaseOrderLine
	if err := db.Where("id = ?", lines[0].ID).First(&line).Error; err != nil {
		t.Fatalf("load line: %v", err)
	}
	if !line.QuantityReceived.Equal(decimal.RequireFromString("8")) {
		t.Fatalf("line must be unchanged, got %s", line.QuantityReceived)
	}
	var updated models.InventoryItem
	if err := db.Where("product_id = ?", productID).First(&updated).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if !updated.OnHandQty.Equal(decimal.RequireFromString("8")) {
		t.Fatalf("stock must be unchanged, got %s", updated.OnHandQty)
	}
}

func TestReceiveRejectsDraftPurchaseOrder(t *testing.T) {
	db := setupReceivingTestDB(t)
	svc := newReceivingService(t, db)
	_, lines := seedPurchaseOrder(t, db, poSeed{
		status: enums.PurchaseOrderStatusDraft,
		lines: []lineSeed{
			{productID: nil, ordered: "10", received: "0"},
		},
	})

	_, err := svc.Receive(context.Background(), ReceiveInput{
		LineID:   lines[0].ID,
		Quantity: decimal.RequireFromString("1"),
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestReceiveUnknownLine(t *testing.T) {
	db := setupReceivingTestDB(t)
	svc := newReceivingService(t, db)

	_, err := svc.Receive(context.Background(), ReceiveInput{
		LineID:   uuid.New(),
		Quantity: decimal.RequireFromString("1"),
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReceiveRejectsNonPositiveQuantity(t *testing.T) {
	db := setupReceivingTestDB(t)
	svc := newReceivingService(t, db)

	_, err := svc.Receive(context.Background(), ReceiveInput{
		LineID:   uuid.New(),
		Quantity: decimal.Zero,
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
