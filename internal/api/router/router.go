package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/no2forms/intake-assistant/internal/http/handlers"
	httpmiddleware "github.com/no2forms/intake-assistant/internal/http/middleware"
	"github.com/no2forms/intake-assistant/internal/webchat"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes
// unmounted.
type Config struct {
	Logger             *logging.Logger
	Chat               *handlers.ChatHandler
	Bookings           *handlers.BookingsHandler
	Poll               *handlers.PollHandler
	WebChat            *webchat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "application/json"))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}

		if cfg.Chat != nil {
			api.Post("/chat", cfg.Chat.Handle)
		}
		if cfg.Bookings != nil {
			api.Post("/notify", cfg.Bookings.Commit)
			api.Post("/bookings", cfg.Bookings.Commit)
			api.Get("/bookings/check", cfg.Bookings.Check)
		}
		if cfg.Poll != nil {
			api.Get("/poll", cfg.Poll.Results)
			api.Post("/poll", cfg.Poll.Vote)
		}
		if cfg.WebChat != nil {
			api.Route("/session", func(s chi.Router) {
				s.Post("/message", cfg.WebChat.HandleMessage)
				s.Post("/slot", cfg.WebChat.HandleSlot)
				s.Get("/history", cfg.WebChat.HandleHistory)
				s.Get("/ws", cfg.WebChat.HandleWebSocket)
			})
		}
	})

	return r
}
