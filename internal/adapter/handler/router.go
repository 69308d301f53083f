package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

type Handlers struct {
	Bookings *BookingHandler
	Packages *PackageHandler
	Admin    *AdminHandler
}

type RouterConfig struct {
	AllowedOrigins []string
	// Logger receives one line per request. Nil disables request logging.
	Logger *slog.Logger
	// Gatherer backs /metrics. Nil leaves the route out.
	Gatherer prometheus.Gatherer
}

// NewRouter wires the HTTP surface. Identity comes from the bearer token;
// anonymous callers may only book guest drop-ins and read availability.
func NewRouter(h Handlers, auth *Authenticator, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.Logger != nil {
		r.Use(requestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/sessions/{id}/availability", h.Bookings.GetAvailability)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.Bookings.CreateBooking)
			r.Get("/{id}", h.Bookings.GetBooking)
			r.Post("/{id}/cancel", h.Bookings.CancelBooking)
			r.Post("/{id}/evidence", h.Bookings.SubmitEvidence)
			r.Get("/{id}/balance", h.Bookings.GetBalance)
			r.Get("/{id}/payments", h.Bookings.ListPayments)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleStaff, domain.RoleAdmin))
				r.Post("/{id}/verify", h.Bookings.VerifyPayment)
				r.Post("/{id}/reject", h.Bookings.RejectPayment)
				r.Post("/{id}/attendance", h.Bookings.SetAttendance)
			})
		})

		r.Route("/packages", func(r chi.Router) {
			r.Post("/{id}/evidence", h.Packages.SubmitEvidence)
			r.Get("/{id}/payments", h.Packages.ListPayments)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(domain.RoleStaff, domain.RoleAdmin))

			r.Post("/sessions", h.Admin.CreateSession)
			r.Get("/sessions/{id}/capacity", h.Admin.CheckCapacity)
			r.Post("/package-definitions", h.Admin.CreatePackageDefinition)
			r.Post("/packages", h.Admin.ActivatePackage)
			r.Post("/packages/{id}/verify", h.Admin.VerifyPackagePayment)
			r.Post("/packages/{id}/reject", h.Admin.RejectPackagePayment)

			r.Post("/bookings", h.Admin.CreateBooking)
			r.Post("/bookings/{id}/cancel", h.Admin.CancelBooking)
			r.Post("/bookings/{id}/reactivate", h.Admin.ReactivateBooking)
			r.Post("/bookings/{id}/no-show", h.Admin.MarkNoShow)
			r.Post("/bookings/{id}/payment-status", h.Admin.ForcePaymentStatus)
		})
	})

	return r
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
