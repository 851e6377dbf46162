package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/fontus/docs"
	"github.com/DRSN-tech/fontus/internal/cfg"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const requestTimeout = 30 * time.Second

type Router struct {
	router *chi.Mux
	logger logger.Logger
	cfg    *cfg.HTTPConfig
}

func NewRouter(router *chi.Mux, logger logger.Logger, cfg *cfg.HTTPConfig) *Router {
	return &Router{router: router, logger: logger, cfg: cfg}
}

// Init регистрирует middleware и маршруты. page — серверная страница /products.
func (r *Router) Init(prUC usecase.ProductUC, page http.Handler) {
	r.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		accessLog(r.logger),
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)

	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if r.cfg.SwaggerOn {
		docs.SwaggerInfo.Host = r.cfg.SwaggerHost
		r.router.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	if page != nil {
		r.router.Method(http.MethodGet, "/products", page)
	}

	r.router.Route("/rest", func(rest chi.Router) {
		prHandler := NewProductHandler(prUC, r.logger)
		registerProductRoutes(rest, prHandler)
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.createProduct)
		pr.Get("/{id}", prHandler.getProduct)
		pr.Put("/{id}", prHandler.updateProduct)
		pr.Delete("/{id}", prHandler.deleteProduct)
	})
}
