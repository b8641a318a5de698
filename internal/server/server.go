package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/harborlane/paysync/internal/checkout"
	checkoutdomain "github.com/harborlane/paysync/internal/checkout/domain"
	"github.com/harborlane/paysync/internal/config"
	"github.com/harborlane/paysync/internal/customerlink"
	"github.com/harborlane/paysync/internal/observability"
	obsmiddleware "github.com/harborlane/paysync/internal/observability/logger"
	obsmetrics "github.com/harborlane/paysync/internal/observability/metrics"
	obstracing "github.com/harborlane/paysync/internal/observability/tracing"
	"github.com/harborlane/paysync/internal/payment"
	"github.com/harborlane/paysync/internal/price"
	pricedomain "github.com/harborlane/paysync/internal/price/domain"
	"github.com/harborlane/paysync/internal/stripeclient"
	"github.com/harborlane/paysync/internal/subscription"
	"github.com/harborlane/paysync/internal/webhook"
	webhookdomain "github.com/harborlane/paysync/internal/webhook/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	customerlink.Module,
	price.Module,
	payment.Module,
	subscription.Module,
	webhook.Module,
	stripeclient.Module,
	checkout.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	webhookSvc  webhookdomain.Service
	checkoutSvc checkoutdomain.Service
	priceRepo   pricedomain.Repository
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	WebhookSvc  webhookdomain.Service
	CheckoutSvc checkoutdomain.Service
	PriceRepo   pricedomain.Repository
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		webhookSvc:  p.WebhookSvc,
		checkoutSvc: p.CheckoutSvc,
		priceRepo:   p.PriceRepo,
	}

	svc.registerRoutes()
	return svc
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.POST("/stripe/webhooks", s.HandleStripeWebhook)
	api.POST("/checkout/sessions", s.HandleCreateCheckoutSession)
	api.GET("/prices", s.HandleListPrices)
}
