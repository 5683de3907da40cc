package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/macroflow/trialgate/docs"
	"github.com/macroflow/trialgate/internal/app/api/handlers"
	mw "github.com/macroflow/trialgate/internal/app/api/middleware"
	"github.com/macroflow/trialgate/internal/app/service/abuse"
	"github.com/macroflow/trialgate/internal/app/service/emailgate"
	"github.com/macroflow/trialgate/internal/app/service/events"
	"github.com/macroflow/trialgate/internal/app/service/newsletter"
	"github.com/macroflow/trialgate/internal/app/service/statistics"
	"github.com/macroflow/trialgate/internal/app/service/trial"
	cfgpkg "github.com/macroflow/trialgate/pkg/config"
	metrics "github.com/macroflow/trialgate/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request tracing only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	mgr trial.Manager,
	gate *emailgate.Gate,
	ev *events.Service,
	ab *abuse.Service,
	nl *newsletter.Service,
	stats statistics.Provider,
) {
	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			Subsystem: "trialgate",
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	handlers.RegisterTrialRoutes(pub, cfg, gate, ev, ab, log)
	handlers.RegisterDeviceRoutes(pub, mgr, gate, ev, ab, log)
	handlers.RegisterNewsletterRoutes(pub, nl, gate, log)

	// Admin group behind the shared-secret check
	admin := r.Group("/admin")
	admin.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.AdminAuthMiddleware(cfg.Admin.Key))
	handlers.RegisterAdminRoutes(admin, mgr, stats, log)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
