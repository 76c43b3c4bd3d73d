package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmreyes/backoffice-backend/pkg/config"
	"github.com/dmreyes/backoffice-backend/pkg/db/models"
	pkgerrors "github.com/dmreyes/backoffice-backend/pkg/errors"
	"github.com/dmreyes/backoffice-backend/pkg/logger"
	"github.com/dmreyes/backoffice-backend/pkg/redis"
)

var oneHundred = decimal.NewFromInt(100)

type snapshotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service computes the production dashboard. The snapshot is advisory: cache
// failures and missing catalog rows degrade the output, never fail it.
type Service interface {
	Snapshot(ctx context.Context, entityID uuid.UUID) (*Snapshot, error)
}

type service struct {
	repo  Repository
	cache snapshotCache
	log   *logger.Logger
	cfg   config.DashboardConfig
}

// NewService builds the aggregator. Cache may be nil to force direct reads.
func NewService(repo Repository, cache snapshotCache, log *logger.Logger, cfg config.DashboardConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository required")
	}
	if cfg.TopListLimit <= 0 {
		cfg.TopListLimit = 10
	}
	if cfg.DeadlineFallback <= 0 {
		cfg.DeadlineFallback = 14 * 24 * time.Hour
	}
	return &service{repo: repo, cache: cache, log: log, cfg: cfg}, nil
}

func (s *service) Snapshot(ctx context.Context, entityID uuid.UUID) (*Snapshot, error) {
	if cached := s.fromCache(ctx, entityID); cached != nil {
		return cached, nil
	}

	snapshot, err := s.compute(ctx, entityID)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, entityID, snapshot)
	return snapshot, nil
}

func (s *service) compute(ctx context.Context, entityID uuid.UUID) (*Snapshot, error) {
	orders, err := s.repo.ListOpenOrders(ctx, entityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open orders")
	}

	orderIDs := make([]uuid.UUID, 0, len(orders))
	ordersByID := make(map[uuid.UUID]*models.SalesOrder, len(orders))
	for i := range orders {
		orderIDs = append(orderIDs, orders[i].ID)
		ordersByID[orders[i].ID] = &orders[i]
	}

	allocations, err := s.repo.ListActiveAllocations(ctx, orderIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list allocations")
	}

	snapshot := &Snapshot{
		EntityID:    entityID,
		GeneratedAt: time.Now().UTC(),
		Shortages:   s.rankShortages(ctx, allocations),
		Deadlines:   s.rankDeadlines(orders, allocations),
		Orders:      orderProgress(orders, allocations),
	}
	return snapshot, nil
}

type shortageAccumulator struct {
	total  decimal.Decimal
	orders map[uuid.UUID]struct{}
}

func (s *service) rankShortages(ctx context.Context, allocations []models.AllocationRecord) []ProductShortage {
	byProduct := map[uuid.UUID]*shortageAccumulator{}
	for _, record := range allocations {
		shortage := record.QuantityReserved.Sub(record.QuantityAllocated)
		if shortage.LessThanOrEqual(decimal.Zero) {
			continue
		}
		acc, ok := byProduct[record.ProductID]
		if !ok {
			acc = &shortageAccumulator{total: decimal.Zero, orders: map[uuid.UUID]struct{}{}}
			byProduct[record.ProductID] = acc
		}
		acc.total = acc.total.Add(shortage)
		acc.orders[record.OrderID] = struct{}{}
	}
	if len(byProduct) == 0 {
		return nil
	}

	productIDs := make([]uuid.UUID, 0, len(byProduct))
	for id := range byProduct {
		productIDs = append(productIDs, id)
	}
	names := s.productNames(ctx, productIDs)

	out := make([]ProductShortage, 0, len(byProduct))
	for id, acc := range byProduct {
		entry := ProductShortage{
			ProductID:      id,
			TotalShortage:  acc.total,
			AffectedOrders: len(acc.orders),
		}
		if p, ok := names[id]; ok {
			entry.ProductName = p.Name
			entry.SKU = p.SKU
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AffectedOrders != out[j].AffectedOrders {
			return out[i].AffectedOrders > out[j].AffectedOrders
		}
		return out[i].TotalShortage.GreaterThan(out[j].TotalShortage)
	})
	if len(out) > s.cfg.TopListLimit {
		out = out[:s.cfg.TopListLimit]
	}
	return out
}

// productNames is best-effort; a catalog lookup failure leaves names empty.
func (s *service) productNames(ctx context.Context, productIDs []uuid.UUID) map[uuid.UUID]models.Product {
	products, err := s.repo.FindProducts(ctx, productIDs)
	if err != nil {
		if s.log != nil {
			s.log.Warn(ctx, "dashboard product lookup failed: "+err.Error())
		}
		return nil
	}
	out := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out
}

func (s *service) rankDeadlines(orders []models.SalesOrder, allocations []models.AllocationRecord) []UpcomingDeadline {
	if len(orders) == 0 {
		return nil
	}

	earliest := map[uuid.UUID]time.Time{}
	for _, record := range allocations {
		if record.ExpectedFulfillmentDate == nil {
			continue
		}
		current, ok := earliest[record.OrderID]
		if !ok || record.ExpectedFulfillmentDate.Before(current) {
			earliest[record.OrderID] = *record.ExpectedFulfillmentDate
		}
	}

	now := time.Now().UTC()
	out := make([]UpcomingDeadline, 0, len(orders))
	for _, order := range orders {
		deadline, ok := earliest[order.ID]
		if !ok {
			deadline = order.CreatedAt.Add(s.cfg.DeadlineFallback)
		}
		out = append(out, UpcomingDeadline{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerID:    order.CustomerID,
			Deadline:      deadline,
			DaysRemaining: int(deadline.Sub(now).Hours() / 24),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Deadline.Before(out[j].Deadline)
	})
	if len(out) > s.cfg.TopListLimit {
		out = out[:s.cfg.TopListLimit]
	}
	return out
}

func orderProgress(orders []models.SalesOrder, allocations []models.AllocationRecord) []OrderProgress {
	required := map[uuid.UUID]decimal.Decimal{}
	fulfilled := map[uuid.UUID]decimal.Decimal{}
	for _, record := range allocations {
		required[record.OrderID] = required[record.OrderID].Add(record.QuantityReserved)
		fulfilled[record.OrderID] = fulfilled[record.OrderID].Add(record.QuantityFulfilled)
	}

	out := make([]OrderProgress, 0, len(orders))
	for _, order := range orders {
		total := required[order.ID]
		done := fulfilled[order.ID]
		percent := decimal.Zero
		if total.GreaterThan(decimal.Zero) {
			percent = done.Div(total).Mul(oneHundred).Round(2)
		}
		out = append(out, OrderProgress{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			Status:          order.Status,
			TotalRequired:   total,
			TotalFulfilled:  done,
			PercentComplete: percent,
		})
	}
	return out
}

func (s *service) fromCache(ctx context.Context, entityID uuid.UUID) *Snapshot {
	if s.cache == nil || s.cfg.DisableCache {
		return nil
	}
	raw, err := s.cache.Get(ctx, redis.DashboardKey(entityID.String()))
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) && s.log != nil {
			s.log.Warn(ctx, "dashboard cache read failed: "+err.Error())
		}
		return nil
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		if s.log != nil {
			s.log.Warn(ctx, "dashboard cache entry corrupt: "+err.Error())
		}
		return nil
	}
	return &snapshot
}

func (s *service) toCache(ctx context.Context, entityID uuid.UUID, snapshot *Snapshot) {
	if s.cache == nil || s.cfg.DisableCache {
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, redis.DashboardKey(entityID.String()), payload, s.cfg.CacheTTL); err != nil && s.log != nil {
		s.log.Warn(ctx, "dashboard cache write failed: "+err.Error())
	}
}
