package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hometechhq/installr-backend/api/controllers"
	"github.com/hometechhq/installr-backend/api/middleware"
	"github.com/hometechhq/installr-backend/internal/claims"
	"github.com/hometechhq/installr-backend/internal/orders"
	"github.com/hometechhq/installr-backend/internal/store"
	"github.com/hometechhq/installr-backend/internal/transactions"
	"github.com/hometechhq/installr-backend/pkg/config"
	"github.com/hometechhq/installr-backend/pkg/enums"
	"github.com/hometechhq/installr-backend/pkg/logger"
)

// Pinger is the health check surface the router needs from a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams collect everything the HTTP surface depends on.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DB    Pinger
	Redis Pinger

	Orders       orders.Service
	Claims       claims.Service
	Store        store.OrderStore
	Transactions transactions.Service
}

// NewRouter assembles the full HTTP surface.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(p.Orders, p.Logger))
			r.Get("/", controllers.ListOrders(p.Store, p.Logger))
			r.Get("/{orderId}", controllers.GetOrder(p.Store, p.Logger))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(p.Orders, p.Logger))
			r.Post("/{orderId}/photos/site", controllers.AddSitePhotos(p.Orders, p.Logger))
			r.Post("/{orderId}/rating", controllers.RateOrder(p.Orders, p.Logger))
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleTechnician, p.Logger))
			r.Get("/", controllers.AssignedJobs(p.Store, p.Logger))
			r.Get("/available", controllers.AvailableJobs(p.Store, p.Logger))
			r.Post("/{orderId}/claim", controllers.ClaimJob(p.Claims, p.Logger))
			r.Post("/{orderId}/decline", controllers.DeclineJob(p.Claims, p.Logger))
			r.Post("/{orderId}/start", controllers.StartJob(p.Orders, p.Logger))
			r.Post("/{orderId}/complete", controllers.CompleteJob(p.Orders, p.Logger))
			r.Post("/{orderId}/photos/installation", controllers.AddInstallationPhotos(p.Orders, p.Logger))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleAdmin, p.Logger))
			r.Get("/orders", controllers.AdminListOrders(p.Store, p.Logger))
			r.Post("/orders/{orderId}/cancel", controllers.AdminCancelOrder(p.Orders, p.Logger))
			r.Post("/orders/{orderId}/refund", controllers.AdminRefundOrder(p.Orders, p.Logger))
			r.Get("/transactions", controllers.AdminTransactions(p.Transactions, p.Logger))
		})
	})

	return r
}
