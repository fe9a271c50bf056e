package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace/internal/api"
	"marketplace/internal/bid"
	"marketplace/internal/booking"
	"marketplace/internal/cache"
	"marketplace/internal/dispatch"
	"marketplace/pkg/config"
	"marketplace/pkg/logger"
)

type Dependencies struct {
	Cfg   config.Config
	DB    *pgxpool.Pool
	Cache cache.ListCache
	Log   *logger.Zap

	// Optional overrides; repositories over DB are used when nil.
	Bookings booking.Store
	Bids     bid.Store
	Dispatch dispatch.Applier
}

func NewRouter(deps Dependencies) http.Handler {
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	if deps.Bookings == nil {
		deps.Bookings = booking.NewRepository(deps.DB)
	}
	if deps.Bids == nil {
		deps.Bids = bid.NewRepository(deps.DB)
	}
	if deps.Dispatch == nil {
		deps.Dispatch = dispatch.NewRepository(deps.DB)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(api.RequestID)
	r.Use(api.AccessLog(deps.Log))
	r.Use(api.CORSMiddleware(api.CORSOptions{
		AllowedOrigins: deps.Cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", api.HeaderRequestID},
		MaxAgeSeconds:  600,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	validator := api.NewValidator()
	limiter := api.NewRateLimiter(deps.Cfg.RateLimit.RPS, deps.Cfg.RateLimit.Burst)

	bookingHandlers := booking.Handlers{Store: deps.Bookings, Cache: deps.Cache, Validator: validator, Log: deps.Log}
	bidHandlers := bid.Handlers{Store: deps.Bids, Cache: deps.Cache, Validator: validator, Log: deps.Log}
	dispatchHandler := dispatch.Handler{
		Secret:    deps.Cfg.Dispatch.Secret,
		Store:     deps.Dispatch,
		Cache:     deps.Cache,
		Validator: validator,
		Log:       deps.Log,
	}

	// v1
	r.Route("/v1", func(r chi.Router) {
		r.Get("/statuses", statuses)

		// Dispatch system, HMAC signed.
		r.Post("/dispatch/status", dispatchHandler.ServeHTTP)

		// Customer and worker APIs
		r.Group(func(r chi.Router) {
			r.Use(api.SessionAuth(deps.Cfg.Auth.JWTSecret, deps.Cfg.Auth.Audience, deps.Log))
			r.Use(limiter.Middleware)

			r.Get("/bookings", bookingHandlers.List)
			r.Get("/bookings/{id}", bookingHandlers.Get)
			r.Get("/bookings/{id}/events", bookingHandlers.Events)
			r.Post("/bookings/{id}/cancel", bookingHandlers.Cancel)
			r.Post("/bookings/{id}/review", bookingHandlers.Review)

			r.Get("/bids", bidHandlers.List)
			r.Get("/bids/{id}", bidHandlers.Get)
			r.Post("/bids/{id}/cancel", bidHandlers.Cancel)
			r.Get("/bids/{id}/offers", bidHandlers.Offers)
			r.Post("/bids/{id}/offers/{offerId}/accept", bidHandlers.Accept)
		})
	})

	return r
}
