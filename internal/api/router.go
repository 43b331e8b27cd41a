package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Faqih001/Threads-WebApp/internal/api/middleware"
	"github.com/Faqih001/Threads-WebApp/internal/config"
	"github.com/Faqih001/Threads-WebApp/internal/handlers"
	"github.com/Faqih001/Threads-WebApp/internal/realtime"
	"github.com/Faqih001/Threads-WebApp/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	logger zerolog.Logger,
	cfg *config.Config,
	h *handlers.Handler,
	authmw *middleware.AuthMiddleware,
	redisStore *store.RedisStore,
	gateway *realtime.Gateway,
) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (skipped when Redis is not configured)
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore, logger, cfg.RateLimitWhitelist)
		r.Use(limiter.Middleware)
	}

	// CORS - credentials on, because auth rides in a cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/health", h.Health)
	r.Get("/ws", gateway.HandleWS)
	r.Post("/api/users/signup", h.Signup)
	r.Post("/api/users/login", h.Login)
	r.Post("/api/users/logout", h.Logout)
	r.Get("/api/users/profile/{query}", h.GetUserProfile)
	r.Get("/api/posts/{id}", h.GetPost)
	r.Get("/api/posts/user/{username}", h.GetUserPosts)

	// Authenticated routes (require the session cookie)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth)

		r.Get("/api/users/suggested", h.GetSuggestedUsers)
		r.Post("/api/users/follow/{id}", h.FollowUnfollowUser)
		r.Put("/api/users/update/{id}", h.UpdateUser)
		r.Put("/api/users/freeze", h.FreezeAccount)

		r.Get("/api/posts/feed", h.GetFeedPosts)
		r.Post("/api/posts/create", h.CreatePost)
		r.Delete("/api/posts/{id}", h.DeletePost)
		r.Put("/api/posts/like/{id}", h.LikeUnlikePost)
		r.Put("/api/posts/reply/{id}", h.ReplyToPost)

		r.Get("/api/messages/conversations", h.GetConversations)
		r.Get("/api/messages/{otherUserId}", h.GetMessages)
		r.Post("/api/messages", h.SendMessage)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.Error(w, http.StatusNotFound, "route not found")
	})

	return r
}
