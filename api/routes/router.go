package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers"
	admincontrollers "github.com/angelmondragon/storefront/api/controllers/admin"
	cartcontrollers "github.com/angelmondragon/storefront/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront/api/controllers/orders"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// CommerceAPI is the commerce API surface the handlers proxy.
type CommerceAPI interface {
	controllers.Catalog
	controllers.Accounts
	ordercontrollers.Backend
	admincontrollers.Backend
}

// Workspaces hands out per-session carts and moves them when a session id
// rotates.
type Workspaces interface {
	middleware.WorkspaceSource
	controllers.CartMover
}

// Deps are the collaborators the router wires into handlers. RateLimits,
// Throttles and Metrics are optional.
type Deps struct {
	Commerce   CommerceAPI
	Sessions   controllers.Sessions
	Workspaces Workspaces
	Confirmer  controllers.Confirmer
	RateLimits middleware.RateLimiterStore
	Throttles  middleware.ThrottleRecorder
	Readiness  map[string]controllers.Pinger
	Metrics    http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	signIn := middleware.AuthThrottle{
		Action:     middleware.ActionSignIn,
		Window:     cfg.AuthRateLimit.LoginWindow,
		PerClient:  cfg.AuthRateLimit.LoginIPLimit,
		PerAccount: cfg.AuthRateLimit.LoginUsernameLimit,
	}
	signUp := middleware.AuthThrottle{
		Action:     middleware.ActionSignUp,
		Window:     cfg.AuthRateLimit.RegisterWindow,
		PerClient:  cfg.AuthRateLimit.RegisterIPLimit,
		PerAccount: cfg.AuthRateLimit.RegisterUsernameLimit,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionCookie(cfg.Session, logg))

		r.Route("/api", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.With(middleware.ThrottleAuth(signUp, deps.RateLimits, deps.Throttles, logg)).Post("/register", controllers.AuthRegister(deps.Commerce, logg))
				r.With(middleware.ThrottleAuth(signIn, deps.RateLimits, deps.Throttles, logg)).Post("/login", controllers.AuthLogin(deps.Sessions, deps.Workspaces, cfg.Session, logg))
				r.Post("/logout", controllers.AuthLogout(deps.Sessions, deps.Workspaces, cfg.Session, logg))
				r.Get("/profile", controllers.AuthProfile(deps.Sessions, deps.Commerce, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(deps.Commerce, logg))
				r.Get("/search", controllers.ProductSearch(deps.Commerce, logg))
				r.Get("/{productId}", controllers.ProductDetail(deps.Commerce, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(deps.Commerce, deps.Sessions, logg))
				r.Get("/track/{trackingCode}", ordercontrollers.Track(deps.Commerce, deps.Sessions, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Commerce, deps.Sessions, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(deps.Sessions, logg))

				r.Get("/dashboard", admincontrollers.Dashboard(deps.Commerce, logg))
				r.Get("/users", admincontrollers.ListUsers(deps.Commerce, logg))
				r.Route("/products", func(r chi.Router) {
					r.Get("/", admincontrollers.ListProducts(deps.Commerce, logg))
					r.Post("/", admincontrollers.CreateProduct(deps.Commerce, logg))
					r.Put("/{productId}", admincontrollers.UpdateProduct(deps.Commerce, logg))
					r.Delete("/{productId}", admincontrollers.DeleteProduct(deps.Commerce, logg))
				})
				r.Route("/categories", func(r chi.Router) {
					r.Get("/", admincontrollers.ListCategories(deps.Commerce, logg))
					r.Post("/", admincontrollers.CreateCategory(deps.Commerce, logg))
					r.Put("/{categoryId}", admincontrollers.UpdateCategory(deps.Commerce, logg))
					r.Delete("/{categoryId}", admincontrollers.DeleteCategory(deps.Commerce, logg))
				})
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", admincontrollers.ListOrders(deps.Commerce, logg))
					r.Patch("/{orderId}/status", admincontrollers.UpdateOrderStatus(deps.Commerce, logg))
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Workspace(deps.Workspaces, logg))

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cartcontrollers.CartFetch(logg))
					r.Delete("/", cartcontrollers.CartClear(logg))
					r.Get("/totals", cartcontrollers.CartTotals(logg))
					r.Post("/items", cartcontrollers.CartAddItem(deps.Commerce, logg))
					r.Patch("/items/{productId}", cartcontrollers.CartUpdateQuantity(logg))
					r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(logg))
				})

				r.Route("/checkout", func(r chi.Router) {
					r.Get("/", controllers.CheckoutOverview(logg))
					r.Post("/", controllers.CheckoutSubmit(deps.Sessions, logg))
				})
			})
		})

		r.Route("/order", func(r chi.Router) {
			r.With(middleware.Workspace(deps.Workspaces, logg)).Get("/success", controllers.OrderSuccess(deps.Confirmer, deps.Sessions, logg))
			r.Get("/failure", controllers.OrderFailure(logg))
		})
	})

	return r
}
