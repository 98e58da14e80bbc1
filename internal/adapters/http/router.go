package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rafaelleal24/storefront/internal/adapters/config"
	"github.com/rafaelleal24/storefront/internal/adapters/http/controllers"
	"github.com/rafaelleal24/storefront/internal/adapters/http/handlers"
	"github.com/rafaelleal24/storefront/internal/adapters/http/middleware"
	"github.com/swaggo/swag"
)

type Router struct {
	healthController  *controllers.HealthController
	productController *controllers.ProductController
	sessionController *controllers.SessionController
	cartController    *controllers.CartController
	rateLimiter       middleware.RateLimiter
	rateLimit         config.RateLimitConfig
}

func NewRouter(
	healthController *controllers.HealthController,
	productController *controllers.ProductController,
	sessionController *controllers.SessionController,
	cartController *controllers.CartController,
	rateLimiter middleware.RateLimiter,
	rateLimit config.RateLimitConfig,
) *Router {
	return &Router{
		healthController:  healthController,
		productController: productController,
		sessionController: sessionController,
		cartController:    cartController,
		rateLimiter:       rateLimiter,
		rateLimit:         rateLimit,
	}
}

func (r *Router) SetupRoutes(router *gin.Engine) {
	cartWrites := middleware.RateLimit(r.rateLimiter, r.rateLimit.CartWrites, r.rateLimit.Window)

	apiGroup := router.Group("/api")
	v1Group := apiGroup.Group("/v1")
	{
		v1Group.Use(middleware.LogRequest())
		v1Group.GET("/health", r.healthController.Health)
		v1Group.GET("/docs/doc.json", serveDocs)

		v1Group.GET("/products", r.productController.Search)
		v1Group.GET("/products/:id", r.productController.GetByID)

		v1Group.POST("/sessions", cartWrites, r.sessionController.StartSession)
		v1Group.DELETE("/sessions/:id", r.sessionController.EndSession)

		v1Group.GET("/sessions/:id/cart", r.cartController.GetCart)
		v1Group.POST("/sessions/:id/cart/items", cartWrites, r.cartController.AddItem)
		v1Group.DELETE("/sessions/:id/cart/items/:product_id", cartWrites, r.cartController.RemoveItem)
		v1Group.POST("/sessions/:id/checkout", r.cartController.Checkout)
	}
}

func serveDocs(c *gin.Context) {
	doc, err := swag.ReadDoc()
	if err != nil {
		handlers.HandleError(c, fmt.Errorf("failed to read swagger doc: %w", err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}

func (r *Router) ListenAndServe(ctx context.Context, config config.HTTPConfig) error {
	engine := gin.New()
	engine.Use(gin.Recovery())
	r.SetupRoutes(engine)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", config.BindInterface, config.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
