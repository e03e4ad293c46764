package httpservice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raffle-network/raffle/internal/config"
	"github.com/raffle-network/raffle/internal/core/application"
	interfaces "github.com/raffle-network/raffle/internal/interface"
	grpcservice "github.com/raffle-network/raffle/internal/interface/grpc"
	log "github.com/sirupsen/logrus"
)

const requestIdHeader = "X-Request-Id"

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type service struct {
	config    Config
	appConfig *config.Config
	server    *http.Server
	health    *grpcservice.HealthService
}

func NewService(
	svcConfig Config, appConfig *config.Config,
) (interfaces.Service, error) {
	if err := svcConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	var health *grpcservice.HealthService
	if svcConfig.HealthPort > 0 {
		svc, err := grpcservice.NewHealthService(svcConfig.HealthPort)
		if err != nil {
			return nil, err
		}
		health = svc
	}

	return &service{svcConfig, appConfig, nil, health}, nil
}

func (s *service) Start() error {
	appSvc, err := s.appConfig.AppService()
	if err != nil {
		return err
	}
	if err := appSvc.Start(); err != nil {
		return fmt.Errorf("failed to start app service: %s", err)
	}
	log.Info("started app service")

	s.server = &http.Server{
		Addr:              s.config.address(),
		Handler:           newRouter(appSvc, s.config),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// nolint:all
	go s.server.ListenAndServe()
	log.Infof("started listening at %s", s.config.address())

	if s.health != nil {
		if err := s.health.Start(); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Stop() {
	if s.health != nil {
		s.health.Stop()
	}
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		//nolint:all
		s.server.Shutdown(ctx)
		log.Info("stopped http server")
	}

	appSvc, _ := s.appConfig.AppService()
	if appSvc != nil {
		appSvc.Stop()
		log.Info("stopped app service")
	}
}

func newRouter(appSvc application.Service, cfg Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	h := &handler{appSvc, cfg.OracleCredential}

	v1 := router.Group("/v1")
	v1.GET("/info", h.getInfo)
	v1.GET("/state", h.getState)
	v1.GET("/recent-winner", h.getRecentWinner)
	v1.GET("/participants", h.getParticipants)
	v1.GET("/participants/:index", h.getParticipant)
	v1.POST("/enter", h.enter)
	v1.GET("/upkeep", h.checkUpkeep)
	v1.POST("/upkeep", h.performUpkeep)
	v1.GET("/rounds", h.getRounds)
	v1.GET("/rounds/:id", h.getRound)
	v1.GET("/events", h.streamEvents)

	if cfg.OracleCallback {
		v1.POST("/fulfill", h.fulfill)
	}

	if cfg.withAdmin() {
		admin := v1.Group(
			"/admin", gin.BasicAuth(gin.Accounts{cfg.AdminUser: cfg.AdminPass}),
		)
		admin.POST("/retry-settlement", h.retrySettlement)
	} else {
		log.Warn("admin credentials not set, admin endpoints are disabled")
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader(requestIdHeader)
		if len(requestId) <= 0 {
			requestId = uuid.New().String()
		}
		c.Header(requestIdHeader, requestId)

		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"request_id": requestId,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start),
		}).Debugf("%s %s", c.Request.Method, c.Request.URL.Path)
	}
}
