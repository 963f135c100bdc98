package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/covline/covline/internal/config"
	emailvalidationsvc "github.com/covline/covline/internal/emailvalidation"
	obslogger "github.com/covline/covline/internal/observability/logger"
	obstracing "github.com/covline/covline/internal/observability/tracing"
	paymentservice "github.com/covline/covline/internal/payment/service"
	signatureservice "github.com/covline/covline/internal/signature/service"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
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
	engine             *gin.Engine
	cfg                config.Config
	paymentSvc         *paymentservice.Service
	signatureSvc       *signatureservice.Service
	emailValidationSvc *emailvalidationsvc.Service
}

type ServerParams struct {
	fx.In

	Gin                *gin.Engine
	Cfg                config.Config
	PaymentSvc         *paymentservice.Service
	SignatureSvc       *signatureservice.Service
	EmailValidationSvc *emailvalidationsvc.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:             p.Gin,
		cfg:                p.Cfg,
		paymentSvc:         p.PaymentSvc,
		signatureSvc:       p.SignatureSvc,
		emailValidationSvc: p.EmailValidationSvc,
	}

	svc.registerWebhookRoutes()
	svc.registerEmailValidationRoutes()

	return svc
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/v0/payment-processor/event", s.HandlePaymentWebhook)
	s.engine.POST("/internal/v0/signature-processor/event", s.HandleSignatureWebhook)
}

func (s *Server) registerEmailValidationRoutes() {
	v0 := s.engine.Group("/v0/email-validations")
	v0.POST("", s.HandleStartEmailValidation)
	v0.POST("/validate", s.HandleResolveEmailValidation)
}
