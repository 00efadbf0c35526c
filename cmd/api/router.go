package main

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pcnexus-api/internal/account"
	"github.com/noah-isme/pcnexus-api/internal/audit"
	"github.com/noah-isme/pcnexus-api/internal/auth"
	"github.com/noah-isme/pcnexus-api/internal/cache"
	"github.com/noah-isme/pcnexus-api/internal/cart"
	"github.com/noah-isme/pcnexus-api/internal/catalog"
	"github.com/noah-isme/pcnexus-api/internal/checkout"
	"github.com/noah-isme/pcnexus-api/internal/common"
	"github.com/noah-isme/pcnexus-api/internal/config"
	"github.com/noah-isme/pcnexus-api/internal/db"
	"github.com/noah-isme/pcnexus-api/internal/health"
	"github.com/noah-isme/pcnexus-api/internal/location"
	"github.com/noah-isme/pcnexus-api/internal/lock"
	"github.com/noah-isme/pcnexus-api/internal/notify"
	"github.com/noah-isme/pcnexus-api/internal/obs"
	"github.com/noah-isme/pcnexus-api/internal/order"
	"github.com/noah-isme/pcnexus-api/internal/pricing"
	"github.com/noah-isme/pcnexus-api/internal/ratelimit"
	"github.com/noah-isme/pcnexus-api/internal/security"
	"github.com/noah-isme/pcnexus-api/internal/storeinfo"
	"github.com/noah-isme/pcnexus-api/internal/wishlist"
)

type deps struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   db.TxBeginner
	redis  *redis.Client
	tasks  notify.Enqueuer
	health health.Checker
}

func newRouter(d deps) (http.Handler, error) {
	cfg, logger := d.cfg, d.logger

	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Store:        catalog.PGStore{DB: d.pool},
		Cache:        cache.New(d.redis, "catalog", cfg.CatalogCacheTTL),
		Logger:       logger.With().Str("module", "catalog").Logger(),
		DefaultLimit: cfg.CatalogPageSize,
		MaxLimit:     cfg.CatalogMaxLimit,
	})
	if err != nil {
		return nil, err
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogSvc})

	locationStore := location.PGStore{DB: d.pool}
	rateTable := &location.Table{
		Store:  locationStore,
		Cache:  cache.New(d.redis, "shipping", cfg.LocationCacheTTL),
		Logger: logger.With().Str("module", "location").Logger(),
	}
	calc := pricing.NewCalculator(cfg.VATPercent, cfg.DefaultShippingCost, cfg.DefaultShippingETA, rateTable)
	locationHandler := &location.Handler{Svc: location.NewService(locationStore, rateTable, calc)}

	authSvc, err := auth.NewService(auth.Config{
		Store:           auth.PGStore{DB: d.pool},
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Issuer:          cfg.ServiceName,
	})
	if err != nil {
		return nil, err
	}
	authHandler := &auth.Handler{Service: authSvc, RefreshCookieName: cfg.RefreshCookieName, CookieSecure: cfg.CookieSecure}
	authMW := auth.Middleware{Service: authSvc}
	csrf := security.CSRF{Secure: cfg.CookieSecure}

	limiterStore, err := ratelimit.NewStore(d.redis, "pcnexus:ratelimit")
	if err != nil {
		return nil, err
	}
	authLimiter, err := ratelimit.New(limiterStore, cfg.RateLimitAuth)
	if err != nil {
		return nil, err
	}
	loginLimit := ratelimit.Handler{Limiter: authLimiter, Key: ratelimit.ByClientIP("login"), Name: "login", Logger: logger}
	registerLimit := ratelimit.Handler{Limiter: authLimiter, Key: ratelimit.ByClientIP("register"), Name: "register", Logger: logger}

	cartSvc := &cart.Service{
		Repo:       cart.PGRepository{DB: d.pool},
		Products:   catalogSvc,
		Locker:     lock.Locker{R: d.redis, RetryBackoff: cfg.LockRetryBackoff, MaxWait: cfg.CartLockTTL},
		Calculator: calc,
		TTL:        cfg.CartTTL,
		LockTTL:    cfg.CartLockTTL,
	}
	cartHandler := &cart.Handler{Svc: cartSvc, Currency: cfg.CurrencyCode}

	checkoutSvc := checkout.NewService(checkout.Config{
		Carts:      cartSvc,
		Calculator: calc,
		Store:      checkout.PGStore{DB: d.pool},
		Notifier:   notify.Publisher{Client: d.tasks, Logger: logger.With().Str("module", "notify").Logger()},
		Logger:     logger.With().Str("module", "checkout").Logger(),
		Currency:   cfg.CurrencyCode,
	})
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}

	orderSvc := &order.Service{Repo: order.PGRepository{DB: d.pool}, Logger: logger.With().Str("module", "order").Logger()}
	orderHandler := &order.Handler{Svc: orderSvc}
	orderAdmin := &order.AdminHandler{Svc: orderSvc}

	auditSvc := audit.Service{Store: audit.PGStore{DB: d.pool}}
	auditLog := audit.Recorder{Service: auditSvc, Logger: logger.With().Str("module", "audit").Logger()}
	auditHandler := audit.Handler{Service: auditSvc, Logger: logger}

	wishlistSvc := &wishlist.Service{Store: wishlist.PGStore{DB: d.pool}, Products: catalogSvc}
	wishlistHandler := &wishlist.Handler{Svc: wishlistSvc}

	accountHandler := &account.Handler{
		Service: &account.Service{Profiles: authSvc, Carts: cartSvc, Wishlists: wishlistSvc, Orders: orderSvc},
		Logger:  logger,
	}
	storeHandler := storeinfo.Handler(storeinfo.New(cfg.StoreName, cfg.CurrencyCode, cfg.CurrencySymbol, calc))
	idem := common.Idem{R: d.redis, TTL: cfg.IdempotencyTTL}
	healthHandler := health.Handler{Checker: d.health}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.SpanRoute)
	if cfg.MetricsEnabled {
		r.Use(obs.HTTPObs{Metrics: obs.NewHTTPMetrics(cfg.MetricsNamespace, nil, nil)}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.HSTSEnabled}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.PprofEnabled {
		r.Mount("/debug", protectPprof(middleware.Profiler(), cfg.PprofUser, cfg.PprofPass))
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(authMW.Authenticate)

		v.Get("/store", storeHandler)
		v.Get("/stores", storeinfo.StoresHandler)
		v.Get("/home", catalogHandler.Home)
		v.Get("/brands", catalogHandler.Brands)
		v.Get("/deals", catalogHandler.Deals)
		v.Get("/faqs", catalogHandler.FAQs)
		v.Get("/categories", catalogHandler.Categories)
		v.Get("/categories/{slug}", catalogHandler.CategoryDetail)
		v.Get("/products", catalogHandler.Products)
		v.Get("/products/search", catalogHandler.Search)
		v.Get("/products/{slug}", catalogHandler.ProductDetail)

		v.Get("/locations", locationHandler.List)
		v.Get("/locations/divisions", locationHandler.Divisions)
		v.Get("/shipping/quote", locationHandler.Quote)

		v.Route("/auth", func(a chi.Router) {
			a.With(registerLimit.Middleware).Post("/register", authHandler.Register)
			a.With(loginLimit.Middleware).Post("/login", authHandler.Login)
			a.Get("/csrf", csrf.Issue)
			a.With(csrf.Middleware).Post("/refresh", authHandler.Refresh)
			a.With(csrf.Middleware).Post("/logout", authHandler.Logout)
			a.With(authMW.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Route("/carts", func(c chi.Router) {
			c.Get("/{id}", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", cartHandler.Create)
				g.Post("/{id}/items", cartHandler.AddItem)
				g.Patch("/{id}/items/{itemId}", cartHandler.UpdateItem)
				g.Delete("/{id}/items/{itemId}", cartHandler.RemoveItem)
				g.Delete("/{id}", cartHandler.Clear)
				g.With(authMW.RequireAuth).Post("/merge", cartHandler.Merge)
			})
		})

		v.Post("/checkout/quote", checkoutHandler.Quote)
		v.With(authMW.RequireAuth, idem.Middleware).Post("/checkout", checkoutHandler.Checkout)

		v.Group(func(u chi.Router) {
			u.Use(authMW.RequireAuth)
			u.Get("/account", accountHandler.Overview)
			u.Get("/orders", orderHandler.List)
			u.Get("/orders/{number}", orderHandler.Get)
			u.Post("/orders/{number}/cancel", orderHandler.Cancel)
			u.Get("/wishlist", wishlistHandler.List)
			u.Post("/wishlist/{productId}", wishlistHandler.Add)
			u.Delete("/wishlist/{productId}", wishlistHandler.Remove)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMW.RequireAuth, auth.RequireRole(auth.RoleAdmin))
			admin.Get("/audit-logs", auditHandler.List)
			admin.With(auditLog.Middleware("orders", "number")).Patch("/orders/{number}/status", orderAdmin.PatchStatus)
			admin.With(auditLog.Middleware("locations", "")).Put("/locations", locationHandler.Upsert)
			admin.With(auditLog.Middleware("locations", "id")).Delete("/locations/{id}", locationHandler.Delete)
		})
	})

	return r, nil
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorised", nil)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
