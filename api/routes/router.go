package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmreyes/backoffice-backend/api/controllers"
	allocationcontrollers "github.com/dmreyes/backoffice-backend/api/controllers/allocations"
	dashboardcontrollers "github.com/dmreyes/backoffice-backend/api/controllers/dashboard"
	ordercontrollers "github.com/dmreyes/backoffice-backend/api/controllers/orders"
	receivingcontrollers "github.com/dmreyes/backoffice-backend/api/controllers/receiving"
	"github.com/dmreyes/backoffice-backend/api/middleware"
	"github.com/dmreyes/backoffice-backend/internal/allocations"
	"github.com/dmreyes/backoffice-backend/internal/dashboard"
	"github.com/dmreyes/backoffice-backend/internal/orders"
	"github.com/dmreyes/backoffice-backend/internal/receiving"
	"github.com/dmreyes/backoffice-backend/pkg/config"
	"github.com/dmreyes/backoffice-backend/pkg/db"
	"github.com/dmreyes/backoffice-backend/pkg/logger"
	"github.com/dmreyes/backoffice-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	promRegistry *prometheus.Registry,
	ordersSvc orders.Service,
	allocationsSvc allocations.Service,
	receivingSvc receiving.Service,
	dashboardSvc dashboard.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.EntityContext(logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(ordersSvc, logg))
			r.Get("/", ordercontrollers.List(ordersSvc, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
			r.Post("/{orderId}/confirm", ordercontrollers.Confirm(ordersSvc, logg))
			r.Post("/{orderId}/start-fulfillment", ordercontrollers.StartFulfillment(ordersSvc, logg))
			r.Post("/{orderId}/ship", ordercontrollers.Ship(ordersSvc, logg))
			r.Post("/{orderId}/deliver", ordercontrollers.MarkDelivered(ordersSvc, logg))
			r.Post("/{orderId}/complete", ordercontrollers.Complete(ordersSvc, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(ordersSvc, logg))
			r.Post("/{orderId}/needs-attention", ordercontrollers.FlagNeedsAttention(ordersSvc, logg))
			r.Post("/{orderId}/allocations", allocationcontrollers.AutoAllocate(allocationsSvc, logg))
		})

		r.Route("/allocations", func(r chi.Router) {
			r.Post("/", allocationcontrollers.Create(allocationsSvc, logg))
			r.Get("/", allocationcontrollers.List(allocationsSvc, logg))
			r.Get("/{allocationId}", allocationcontrollers.Detail(allocationsSvc, logg))
			r.Post("/{allocationId}/fulfill", allocationcontrollers.Fulfill(allocationsSvc, logg))
			r.Post("/{allocationId}/cancel", allocationcontrollers.Cancel(allocationsSvc, logg))
		})

		r.Post("/purchase-orders/lines/{lineId}/receive", receivingcontrollers.ReceiveLine(receivingSvc, logg))

		r.Get("/dashboard/production", dashboardcontrollers.Production(dashboardSvc, logg))
	})

	return r
}
