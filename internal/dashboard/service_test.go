package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/backoffice-backend/pkg/config"
	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	"github.com/dmreyes/backoffice-backend/pkg/enums"
	"github.com/dmreyes/backoffice-backend/pkg/redis"
)

type stubDashRepo struct {
	orders      []models.SalesOrder
	allocations []models.AllocationRecord
	products    []models.Product
	productErr  error
	orderCalls  int
}

func (s *stubDashRepo) ListOpenOrders(ctx context.Context, entityID uuid.UUID) ([]models.SalesOrder, error) {
	s.orderCalls++
	return s.orders, nil
}

func (s *stubDashRepo) ListActiveAllocations(ctx context.Context, orderIDs []uuid.UUID) ([]models.AllocationRecord, error) {
	return s.allocations, nil
}

func (s *stubDashRepo) FindProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.Product, error) {
	if s.productErr != nil {
		return nil, s.productErr
	}
	return s.products, nil
}

type stubCache struct {
	values  map[string]string
	getErr  error
	setErr  error
	setKeys []string
}

func newStubCache() *stubCache {
	return &stubCache{values: map[string]string{}}
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	val, ok := s.values[key]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return val, nil
}

func (s *stubCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.setKeys = append(s.setKeys, key)
	if raw, ok := value.([]byte); ok {
		s.values[key] = string(raw)
	}
	return nil
}

func testConfig() config.DashboardConfig {
	return config.DashboardConfig{
		CacheTTL:         30 * time.Second,
		DeadlineFallback: 336 * time.Hour,
		TopListLimit:     10,
	}
}

func newTestService(t *testing.T, repo Repository, cache snapshotCache, cfg config.DashboardConfig) Service {
	t.Helper()
	svc, err := NewService(repo, cache, nil, cfg)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func openOrder(number string, status enums.OrderStatus, createdAt time.Time) models.SalesOrder {
	return models.SalesOrder{
		ID:          uuid.New(),
		EntityID:    uuid.New(),
		CustomerID:  uuid.New(),
		OrderNumber: number,
		Status:      status,
		CreatedAt:   createdAt,
	}
}

func allocation(orderID, productID uuid.UUID, reserved, allocated, fulfilled string) models.AllocationRecord {
	return models.AllocationRecord{
		ID:                uuid.New(),
		OrderID:           orderID,
		ProductID:         productID,
		QuantityReserved:  decimal.RequireFromString(reserved),
		QuantityAllocated: decimal.RequireFromString(allocated),
		QuantityFulfilled: decimal.RequireFromString(fulfilled),
		Status:            enums.AllocationStatusReserved,
	}
}

func TestSnapshotShortagesGroupedAndRanked(t *testing.T) {
	now := time.Now().UTC()
	orderA := openOrder("SO-1", enums.OrderStatusConfirmed, now)
	orderB := openOrder("SO-2", enums.OrderStatusFulfillment, now)
	scarce := uuid.New()
	covered := uuid.New()

	repo := &stubDashRepo{
		orders: []models.SalesOrder{orderA, orderB},
		allocations: []models.AllocationRecord{
			allocation(orderA.ID, scarce, "10", "4", "0"),
			allocation(orderB.ID, scarce, "5", "2", "0"),
			allocation(orderA.ID, covered, "3", "3", "0"),
		},
		products: []models.Product{
			{ID: scarce, Name: "Widget", SKU: "W-1"},
		},
	}
	svc := newTestService(t, repo, nil, testConfig())

	snapshot, err := svc.Snapshot(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Shortages) != 1 {
		t.Fatalf("fully covered product must not appear, got %d entries", len(snapshot.Shortages))
	}
	entry := snapshot.Shortages[0]
	if entry.ProductID != scarce {
		t.Fatalf("expected scarce product, got %s", entry.ProductID)
	}
	if !entry.TotalShortage.Equal(decimal.RequireFromString("9")) {
		t.Fatalf("expected total shortage 9, got %s", entry.TotalShortage)
	}
	if entry.AffectedOrders != 2 {
		t.Fatalf("expected 2 affected orders, got %d", entry.AffectedOrders)
	}
	if entry.ProductName != "Widget" || entry.SKU != "W-1" {
		t.Fatalf("expected catalog names, got %+v", entry)
	}
}

func TestSnapshotShortageRankCap(t *testing.T) {
	now := time.Now().UTC()
	order := openOrder("SO-1", enums.OrderStatusConfirmed, now)
	var allocations []models.AllocationRecord
	for i := 0; i < 15; i++ {
		allocations = append(allocations, allocation(order.ID, uuid.New(), "5", "1", "0"))
	}
	repo := &stubDashRepo{orders: []models.SalesOrder{order}, allocations: allocations}
	cfg := testConfig()
	cfg.TopListLimit = 10
	svc := newTestService(t, repo, nil, cfg)

	snapshot, err := svc.Snapshot(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Shortages) != 10 {
		t.Fatalf("expected cap of 10, got %d", len(snapshot.Shortages))
	}
}

func TestSnapshotDeadlinesUseEarliestDateWithFallback(t *testing.T) {
	now := time.Now().UTC()
	soon := now.Add(48 * time.Hour)
	later := now.Add(96 * time.Hour)
	dated := openOrder("SO-1", enums.OrderStatusConfirmed, now)
	fallback := openOrder("SO-2", enums.OrderStatusConfirmed, now)

	first := allocation(dated.ID, uuid.New(), "2", "2", "0")
	first.ExpectedFulfillmentDate = &later
	second := allocation(dated.ID, uuid.New(), "2", "2", "0")
	second.ExpectedFulfillmentDate = &soon

	repo := &stubDashRepo{
		orders:      []models.SalesOrder{fallback, dated},
		allocations: []models.AllocationRecord{first, second},
	}
	svc := newTestService(t, repo, nil, testConfig())

	snapshot, err := svc.Snapshot(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Deadlines) != 2 {
		t.Fatalf("expected 2 deadlines, got %d", len(snapshot.Deadlines))
	}
	if snapshot.Deadlines[0].OrderID != dated.ID {
		t.Fatalf("order with the earliest expected date must rank first")
	}
	if !snapshot.Deadlines[0].Deadline.Equal(soon) {
		t.Fatalf("expected earliest allocation date, got %s", snapshot.Deadlines[0].Deadline)
	}
	if !snapshot.Deadlines[1].Deadline.Equal(now.Add(336 * time.Hour)) {
		t.Fatalf("expected creation date fallback, got %s", snapshot.Deadlines[1].Deadline)
	}
}

func TestSnapshotPercentCompleteGuardsDivisionByZero(t *testing.T) {
	now := time.Now().UTC()
	empty := openOrder("SO-1", enums.OrderStatusConfirmed, now)
	half := openOrder("SO-2", enums.OrderStatusFulfillment, now)

	repo := &stubDashRepo{
		orders: []models.SalesOrder{empty, half},
		allocations: []models.AllocationRecord{
			allocation(half.ID, uuid.New(), "10", "10", "5"),
		},
	}
	svc := newTestService(t, repo, nil, testConfig())

	snapshot, err := svc.Snapshot(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	byOrder := map[uuid.UUID]OrderProgress{}
	for _, progress := range snapshot.Orders {
		byOrder[progress.OrderID] = progress
	}
	if !byOrder[empty.ID].PercentComplete.IsZero() {
		t.Fatalf("order without allocations must report 0%%, got %s", byOrder[empty.ID].PercentComplete)
	}
	if !byOrder[half.ID].PercentComplete.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected 50%%, got %s", byOrder[half.ID].PercentComplete)
	}
}

func TestSnapshotMissingProductNamesFallBackEmpty(t *testing.T) {
	now := time.Now().UTC()
	order := openOrder("SO-1", enums.OrderStatusConfirmed, now)
	repo := &stubDashRepo{
		orders:      []models.SalesOrder{order},
		allocations: []models.AllocationRecord{allocation(order.ID, uuid.New(), "5", "1", "0")},
		productErr:  errors.New("catalog unavailable"),
	}
	svc := newTestService(t, repo, nil, testConfig())

	snapshot, err := svc.Snapshot(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("catalog failure must not fail the snapshot: %v", err)
	}
	if len(snapshot.Shortages) != 1 {
		t.Fatalf("expected shortage entry, got %d", len(snapshot.Shortages))
	}
	if snapshot.Shortages[0].ProductName != "" || snapshot.Shortages[0].SKU != "" {
		t.Fatalf("expected empty names, got %+v", snapshot.Shortages[0])
	}
}

func TestSnapshotServedFromCache(t *testing.T) {
	entityID := uuid.New()
	cached := Snapshot{EntityID: entityID, GeneratedAt: time.Now().UTC()}
	payload, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	cache := newStubCache()
	cache.values[redis.DashboardKey(entityID.String())] = string(payload)
	repo := &stubDashRepo{}
	svc := newTestService(t, repo, cache, testConfig())

	snapshot, err := svc.Snapshot(context.Background(), entityID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.EntityID != entityID {
		t.Fatalf("expected cached snapshot")
	}
	if repo.orderCalls != 0 {
		t.Fatalf("cache hit must not touch the database")
	}
}

func TestSnapshotCacheFailureDegradesToDirectReads(t *testing.T) {
	cache := newStubCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	repo := &stubDashRepo{}
	svc := newTestService(t, repo, cache, testConfig())

	snapshot, err := svc.Snapshot(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("cache failure must not fail the snapshot: %v", err)
	}
	if snapshot == nil || repo.orderCalls != 1 {
		t.Fatalf("expected direct read on cache failure")
	}
}

func TestSnapshotPopulatesCache(t *testing.T) {
	entityID := uuid.New()
	cache := newStubCache()
	repo := &stubDashRepo{}
	svc := newTestService(t, repo, cache, testConfig())

	if _, err := svc.Snapshot(context.Background(), entityID); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(cache.setKeys) != 1 || cache.setKeys[0] != redis.DashboardKey(entityID.String()) {
		t.Fatalf("expected snapshot cached under the entity key, got %v", cache.setKeys)
	}
}
