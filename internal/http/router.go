package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger(handler.logger))
	r.Use(Recoverer(handler.logger))
	r.Use(Timeout)
	r.Use(CORS)

	r.Get("/healthz", handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", handler.Health)

		r.Get("/clients", handler.ListClients)
		r.Post("/clients", handler.CreateClient)
		r.Get("/clients/{id}", handler.GetClient)
		r.Put("/clients/{id}", handler.UpdateClient)
		r.Delete("/clients/{id}", handler.DeleteClient)

		r.Get("/products", handler.ListProducts)
		r.Post("/products", handler.CreateProduct)
		r.Post("/products/import", handler.ImportProducts)
		r.Get("/products/{id}", handler.GetProduct)
		r.Put("/products/{id}", handler.UpdateProduct)
		r.Delete("/products/{id}", handler.DeleteProduct)

		r.Get("/sales", handler.ListSales)
		r.Post("/sales", handler.CreateSale)
		r.Get("/sales/export", handler.ExportSales)
		r.Get("/sales/{id}", handler.GetSale)

		r.Get("/dashboard/stats", handler.DashboardStats)
		r.Get("/dashboard/recent-sales", handler.RecentSales)
		r.Get("/analytics/monthly", handler.MonthlyAnalytics)
	})

	return r
}
