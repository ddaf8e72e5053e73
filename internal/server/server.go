package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/pathway/internal/audit"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"github.com/smallbiznis/pathway/internal/authorization"
	"github.com/smallbiznis/pathway/internal/collection"
	collectiondomain "github.com/smallbiznis/pathway/internal/collection/domain"
	"github.com/smallbiznis/pathway/internal/config"
	"github.com/smallbiznis/pathway/internal/course"
	coursedomain "github.com/smallbiznis/pathway/internal/course/domain"
	"github.com/smallbiznis/pathway/internal/observability"
	obsmiddleware "github.com/smallbiznis/pathway/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/pathway/internal/observability/metrics"
	obstracing "github.com/smallbiznis/pathway/internal/observability/tracing"
	"github.com/smallbiznis/pathway/internal/organization"
	organizationdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	"github.com/smallbiznis/pathway/internal/paymentsconfig"
	paymentsconfigdomain "github.com/smallbiznis/pathway/internal/paymentsconfig/domain"
	"github.com/smallbiznis/pathway/internal/ratelimit"
	"github.com/smallbiznis/pathway/internal/trail"
	traildomain "github.com/smallbiznis/pathway/internal/trail/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	authorization.Module,
	audit.Module,
	organization.Module,
	course.Module,
	collection.Module,
	paymentsconfig.Module,
	trail.Module,
	ratelimit.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterRoutes()
	}),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.Middleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server failed", zap.Error(err))
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
	engine            *gin.Engine
	cfg               config.Config
	log               *zap.Logger
	authzSvc          authorization.Service
	auditSvc          auditdomain.Service
	organizationSvc   organizationdomain.Service
	courseSvc         coursedomain.Service
	collectionSvc     collectiondomain.Service
	paymentsConfigSvc paymentsconfigdomain.Service
	trailSvc          traildomain.Service
	trailLimiter      *ratelimit.TrailLimiter
	obsMetrics        *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	Cfg               config.Config
	Log               *zap.Logger
	AuthzSvc          authorization.Service
	AuditSvc          auditdomain.Service
	OrganizationSvc   organizationdomain.Service
	CourseSvc         coursedomain.Service
	CollectionSvc     collectiondomain.Service
	PaymentsConfigSvc paymentsconfigdomain.Service
	TrailSvc          traildomain.Service
	TrailLimiter      *ratelimit.TrailLimiter `optional:"true"`
	ObsMetrics        *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:            p.Gin,
		cfg:               p.Cfg,
		log:               p.Log.Named("http.server"),
		authzSvc:          p.AuthzSvc,
		auditSvc:          p.AuditSvc,
		organizationSvc:   p.OrganizationSvc,
		courseSvc:         p.CourseSvc,
		collectionSvc:     p.CollectionSvc,
		paymentsConfigSvc: p.PaymentsConfigSvc,
		trailSvc:          p.TrailSvc,
		trailLimiter:      p.TrailLimiter,
		obsMetrics:        p.ObsMetrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api", ActorContext())

	// -------- Organizations --------
	api.POST("/orgs", RequireUser(), s.CreateOrganization)
	api.GET("/orgs/:org_id", RequireUser(), s.GetOrganization)
	api.POST("/orgs/:org_id/members", s.authorizeOrgAction(authorization.ObjectOrganizationMember, authorization.ActionCreate), s.AddOrganizationMember)
	api.GET("/orgs/:org_id/audit_logs", s.authorizeOrgAction(authorization.ObjectAuditLog, authorization.ActionRead), s.ListAuditLogs)

	// -------- Courses --------
	api.POST("/orgs/:org_id/courses", s.authorizeOrgAction(authorization.ObjectCourse, authorization.ActionCreate), s.CreateCourse)
	api.GET("/courses/:course_id", s.GetCourse)

	// -------- Collections --------
	// Public collections are readable by anyone, so the service authorizes
	// after looking the collection up.
	api.POST("/orgs/:org_id/collections", s.CreateCollection)
	api.GET("/orgs/:org_id/collections", s.ListCollections)
	api.GET("/collections/:collection_uuid", s.GetCollection)
	api.DELETE("/collections/:collection_uuid", s.DeleteCollection)

	// -------- Payments Config --------
	// The service checks the organization before authorizing, so no RBAC
	// middleware here.
	payments := api.Group("/payments/:org_id/config")
	{
		payments.POST("", s.InitPaymentsConfig)
		payments.GET("", s.GetPaymentsConfig)
		payments.PUT("", s.UpdatePaymentsConfig)
		payments.DELETE("", s.DeletePaymentsConfig)
	}

	// -------- Trails --------
	trails := api.Group("/trail", RequireUser())
	{
		trails.GET("", s.GetTrail)
		trails.GET("/org/:org_id/trail", s.GetTrailByOrg)
		trails.POST("/org/:org_id/trail", s.TrailRateLimit(), s.CreateTrail)
		trails.POST("/add_course/:course_id", s.TrailRateLimit(), s.AddCourseToTrail)
		trails.DELETE("/remove_course/:course_id", s.TrailRateLimit(), s.RemoveCourseFromTrail)
		trails.POST("/add_activity/course/:course_id/activity/:activity_id", s.TrailRateLimit(), s.AddActivityToTrail)
	}
}
