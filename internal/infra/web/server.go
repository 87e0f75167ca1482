package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"course-purchase-platform/internal/infra/logging"
	"course-purchase-platform/internal/usecase"
)

type Server struct {
	purchaseUC usecase.PurchaseUseCase
	accessUC   usecase.AccessUseCase
	auth       *AuthManager
	log        *zerolog.Logger
}

func NewServer(
	purchaseUC usecase.PurchaseUseCase,
	accessUC usecase.AccessUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		purchaseUC: purchaseUC,
		accessUC:   accessUC,
		auth:       auth,
		log:        logger,
	}
}

// Routes builds the full router: open health/metrics endpoints plus the
// authenticated student API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Catalog browsing needs no session.
		r.Get("/items", itemsListHandler(s.accessUC))

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/items/{itemID}/purchase", purchaseHandler(s.purchaseUC))
			r.Get("/items/{itemID}/access", accessHandler(s.accessUC))

			r.Get("/purchases", purchasesListHandler(s.purchaseUC))
			r.Post("/purchases/verify", verifyHandler(s.purchaseUC))
			r.Post("/purchases/{purchaseID}/cancel", cancelHandler(s.purchaseUC))
		})
	})

	return r
}

// authMiddleware authenticates the student and stores the id on the
// request context for handlers and log fields downstream.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := logging.WithStudentID(r.Context(), claims.StudentID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		logging.With(ctx, s.log).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Msg("http request")
	})
}
