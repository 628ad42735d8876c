package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yannickabena/mboa-storefront/api/controllers"
	"github.com/yannickabena/mboa-storefront/api/middleware"
	"github.com/yannickabena/mboa-storefront/internal/cart"
	"github.com/yannickabena/mboa-storefront/internal/categories"
	checkoutsvc "github.com/yannickabena/mboa-storefront/internal/checkout"
	"github.com/yannickabena/mboa-storefront/internal/products"
	"github.com/yannickabena/mboa-storefront/internal/session"
	"github.com/yannickabena/mboa-storefront/internal/toast"
	"github.com/yannickabena/mboa-storefront/pkg/config"
	"github.com/yannickabena/mboa-storefront/pkg/logger"
	"github.com/yannickabena/mboa-storefront/pkg/metrics"
	"github.com/yannickabena/mboa-storefront/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	Redis          *redis.Client
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
	Sessions       *session.Service
	Carts          *cart.Store
	Checkout       *checkoutsvc.Service
	Products       *products.Service
	CategoryCache  *categories.Cache
	Resolver       *categories.Resolver
	Toasts         *toast.Center
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisPinger(deps.Redis)))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginCMPIDLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session, logg))

		r.Route("/auth", func(r chi.Router) {
			login := controllers.AuthLogin(deps.Sessions, deps.Resolver, deps.Toasts, logg)
			if deps.Redis != nil {
				r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", login)
			} else {
				r.Post("/login", login)
			}
			r.Post("/logout", controllers.AuthLogout(deps.Sessions, deps.Toasts, logg))
			r.Post("/register", controllers.AuthRegister(deps.Sessions, deps.Toasts, logg))
			r.Get("/session", controllers.AuthSession(deps.Sessions, deps.Resolver, logg))
			r.Put("/profile", controllers.AuthProfileUpdate(deps.Sessions, deps.Toasts, logg))
		})

		r.Get("/categories", controllers.CategoriesList(deps.CategoryCache, logg))
		r.Get("/dashboard/route", controllers.DashboardRoute(deps.Sessions, deps.Resolver, logg))

		r.Route("/vetement", func(r chi.Router) {
			r.Get("/categories-principales", controllers.ClothingPrincipalCategories(deps.Products, logg))
			r.Get("/categories", controllers.ClothingCategories(deps.Products, logg))
			r.Get("/sous-categories/{categoryId}", controllers.ClothingSubCategories(deps.Products, logg))
			r.Get("/produits", controllers.ClothingProducts(deps.Products, logg))
			r.Get("/produits/{productId}", controllers.ClothingProductDetail(deps.Products, logg))
			r.Post("/produits", controllers.ClothingProductCreate(deps.Products, deps.Sessions, logg))
		})

		r.Route("/restaurant", func(r chi.Router) {
			r.Get("/menus", controllers.RestaurantMenus(deps.Products, deps.Sessions, logg))
			r.Post("/plats", controllers.RestaurantPlatCreate(deps.Products, deps.Sessions, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Carts, logg))
			r.Delete("/", controllers.CartClear(deps.Carts, logg))
			r.Post("/items", controllers.CartAdd(deps.Carts, logg))
			r.Put("/items/{productId}", controllers.CartUpdateQuantity(deps.Carts, logg))
			r.Delete("/items/{productId}", controllers.CartRemove(deps.Carts, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutSubmit(deps.Checkout, deps.Toasts, logg))
			r.Post("/verify-otp", controllers.CheckoutVerifyOTP(deps.Checkout, deps.Toasts, logg))
			r.Post("/reset", controllers.CheckoutReset(deps.Checkout, logg))
			r.Get("/commandes/{commandeId}/recu", controllers.CheckoutReceipt(deps.Checkout, logg))
		})

		r.Route("/toasts", func(r chi.Router) {
			r.Get("/", controllers.ToastList(deps.Toasts, logg))
			r.Delete("/", controllers.ToastClear(deps.Toasts, logg))
			r.Delete("/{toastId}", controllers.ToastDismiss(deps.Toasts, logg))
		})
	})

	return r
}

// redisPinger avoids handing a typed-nil pointer to the health check.
func redisPinger(client *redis.Client) redis.Pinger {
	if client == nil {
		return nil
	}
	return client
}
