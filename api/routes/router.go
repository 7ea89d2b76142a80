package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yupvendas/storebot/api/controllers"
	"github.com/yupvendas/storebot/api/middleware"
	"github.com/yupvendas/storebot/internal/campaign"
	"github.com/yupvendas/storebot/internal/catalog"
	"github.com/yupvendas/storebot/internal/chat"
	"github.com/yupvendas/storebot/internal/customers"
	"github.com/yupvendas/storebot/internal/dialog"
	"github.com/yupvendas/storebot/internal/orders"
	"github.com/yupvendas/storebot/internal/payment"
	"github.com/yupvendas/storebot/internal/settings"
	"github.com/yupvendas/storebot/internal/users"
	"github.com/yupvendas/storebot/internal/whatsapp"
	"github.com/yupvendas/storebot/pkg/config"
	"github.com/yupvendas/storebot/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Cfg  *config.Config
	Logg *logger.Logger

	DB    pinger
	Redis pinger

	Users     users.Service
	Catalog   catalog.Service
	Customers customers.Service
	Orders    orders.Service
	Chat      chat.Service
	Settings  settings.Service
	Campaigns campaign.Service
	CopyRepo  dialog.CopyRepository
	Messenger whatsapp.Messenger

	Engine   *dialog.Engine
	Payments *payment.Client

	Registry *prometheus.Registry
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Cfg, d.Logg

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/whatsapp", controllers.WhatsAppWebhook(d.Engine, cfg.WhatsApp.WebhookToken, logg))
		if d.Payments != nil {
			r.Post("/payments", controllers.PaymentWebhook(d.Engine, d.Payments, logg))
		}
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(d.Users, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(d.Catalog, logg))
			r.Post("/", controllers.ProductCreate(d.Catalog, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(d.Catalog, logg))
			r.Delete("/{productId}", controllers.ProductDelete(d.Catalog, logg))
			r.Post("/{productId}/stock", controllers.ProductAdjustStock(d.Catalog, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(d.Customers, logg))
			r.Post("/", controllers.CustomerCreate(d.Customers, logg))
			r.Get("/{phone}", controllers.CustomerDetail(d.Customers, logg))
			r.Patch("/{phone}", controllers.CustomerUpdate(d.Customers, logg))
			r.Delete("/{phone}", controllers.CustomerDelete(d.Customers, logg))
			r.Post("/{phone}/human-mode", controllers.CustomerHumanMode(d.Customers, logg))
			r.Get("/{phone}/chat", controllers.ChatHistory(d.Chat, logg))
			r.Post("/{phone}/chat", controllers.ChatSend(d.Chat, d.Messenger, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(d.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(d.Orders, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/stats", controllers.OrderStats(d.Orders, logg))
			r.Get("/top-products", controllers.TopProducts(d.Orders, logg))
			r.Get("/top-customers", controllers.TopCustomers(d.Orders, logg))
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", controllers.CopyList(d.CopyRepo, logg))
			r.Put("/", controllers.CopySet(d.CopyRepo, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", controllers.SettingsList(d.Settings, logg))
				r.Put("/", controllers.SettingsSet(d.Settings, logg))
			})
			r.Post("/campaigns", controllers.CampaignSend(d.Campaigns, logg))
			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.UserList(d.Users, logg))
				r.Post("/", controllers.UserCreate(d.Users, logg))
				r.Delete("/{userId}", controllers.UserDelete(d.Users, logg))
			})
		})
	})

	return r
}
