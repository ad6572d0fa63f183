package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/handler/http/middleware"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/pkg/jwt"
)

func NewRouter(
	jwtService jwt.Service,
	invoiceHandler InvoiceHandler,
	billingHandler BillingHandler,
	creditHandler CreditHandler,
	webhookHandler WebhookHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "club-billing"),
		slog.String("version", "v1.0.0"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Gateway callbacks authenticate with their own token, not a JWT.
		r.Post("/webhooks/xendit", webhookHandler.HandleXenditCallback)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", invoiceHandler.List)
				r.Get("/{invoiceID}", invoiceHandler.GetByID)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/", invoiceHandler.Create)
					r.Delete("/{invoiceID}", invoiceHandler.Delete)
					r.Post("/{invoiceID}/cancel", invoiceHandler.Cancel)
					r.Post("/{invoiceID}/mark-paid", invoiceHandler.MarkPaid)
					r.Get("/{invoiceID}/audit", invoiceHandler.ListAudit)
				})
			})

			r.Route("/billing", func(r chi.Router) {
				r.Get("/preview/{childID}", billingHandler.PreviewFees)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/generate", billingHandler.BulkGenerate)
				})
			})

			r.Route("/credits", func(r chi.Router) {
				r.Get("/{guardianID}", creditHandler.Balance)
				r.Get("/{guardianID}/history", creditHandler.History)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/{guardianID}/apply", creditHandler.Apply)
					r.Post("/{guardianID}/deposit", creditHandler.Deposit)
				})
			})
		})
	})
	return r
}
