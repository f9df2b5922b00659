package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/cobranca/internal/http/billing"
	"github.com/MrJamesThe3rd/cobranca/internal/http/customer"
	"github.com/MrJamesThe3rd/cobranca/internal/http/dashboard"
	"github.com/MrJamesThe3rd/cobranca/internal/http/importcsv"
	"github.com/MrJamesThe3rd/cobranca/internal/http/notification"
)

func New(
	billingsV1 *billing.Handler,
	customersV1 *customer.Handler,
	notificationsV1 *notification.Handler,
	dashboardV1 *dashboard.Handler,
	importV1 *importcsv.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/billings", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			billingsV1.Routes(r)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			customersV1.Routes(r)
		})

		r.Route("/notifications", func(r chi.Router) {
			notificationsV1.Routes(r)
		})

		r.Route("/dashboard", dashboardV1.Routes)

		r.Route("/import", importV1.Routes)
	})

	return router
}
