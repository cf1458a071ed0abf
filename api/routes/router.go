package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/platehub-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/platehub-backend/api/controllers/orders"
	payoutcontrollers "github.com/angelmondragon/platehub-backend/api/controllers/payouts"
	vendorcontrollers "github.com/angelmondragon/platehub-backend/api/controllers/vendors"
	"github.com/angelmondragon/platehub-backend/api/middleware"
	"github.com/angelmondragon/platehub-backend/internal/notifications"
	"github.com/angelmondragon/platehub-backend/internal/orders"
	"github.com/angelmondragon/platehub-backend/internal/vendors"
	"github.com/angelmondragon/platehub-backend/pkg/config"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
)

// Services bundles the domain services mounted by the router.
type Services struct {
	Orders        orders.Service
	Payouts       payoutcontrollers.Service
	Vendors       vendors.Service
	Menu          vendorcontrollers.MenuLister
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	svcs Services,
	readiness ...controllers.Dependency,
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	if gatherer != nil && cfg.FeatureFlags.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(svcs.Orders, logg))
			r.Get("/", ordercontrollers.List(svcs.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(svcs.Orders, logg))
			r.Put("/{orderId}/items", ordercontrollers.ReviseItems(svcs.Orders, logg))
			r.Delete("/{orderId}", ordercontrollers.Delete(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(svcs.Orders, logg))
			r.Post("/{orderId}/status", ordercontrollers.UpdateStatus(svcs.Orders, logg))
			r.With(middleware.IdempotencyKey(logg)).Post("/{orderId}/payment/{action}", ordercontrollers.PaymentAction(svcs.Orders, logg))
			r.Post("/{orderId}/rating", ordercontrollers.Rate(svcs.Orders, logg))
		})

		r.Route("/vendors/{vendorId}", func(r chi.Router) {
			r.Get("/", vendorcontrollers.Detail(svcs.Vendors, logg))
			r.Get("/menu", vendorcontrollers.Menu(svcs.Vendors, svcs.Menu, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleVendor))
			r.Get("/payouts/summary", payoutcontrollers.VendorSummary(svcs.Payouts, logg))
			r.Get("/payouts", payoutcontrollers.VendorPayouts(svcs.Payouts, logg))
			r.Put("/open", vendorcontrollers.SetOpen(svcs.Vendors, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/summaries", payoutcontrollers.AdminSummaries(svcs.Payouts, logg))
			r.Post("/", payoutcontrollers.AdminCreate(svcs.Payouts, logg))
			r.Get("/", payoutcontrollers.AdminList(svcs.Payouts, logg))
			r.Patch("/{payoutId}", payoutcontrollers.AdminUpdateStatus(svcs.Payouts, logg))
			r.Post("/{payoutId}/logs", payoutcontrollers.AdminRecordAction(svcs.Payouts, logg))
			r.Get("/{payoutId}/logs", payoutcontrollers.AdminListLogs(svcs.Payouts, logg))
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Get("/", vendorcontrollers.AdminList(svcs.Vendors, logg))
			r.Get("/{vendorId}/payout-summary", payoutcontrollers.AdminVendorSummary(svcs.Payouts, logg))
			r.Put("/{vendorId}/commission-rate", vendorcontrollers.AdminSetCommissionRate(svcs.Vendors, logg))
		})
	})

	return r
}
