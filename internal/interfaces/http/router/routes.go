package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kolnet/backend/internal/infrastructure/logger"
	"github.com/kolnet/backend/internal/interfaces/http/handler"
	"github.com/kolnet/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers bundles every API handler
type Handlers struct {
	Relationships *handler.RelationshipHandler
	Devices       *handler.DeviceHandler
	Commissions   *handler.CommissionHandler
	Integrity     *handler.IntegrityHandler
	System        *handler.SystemHandler
}

// EngineConfig configures NewEngine
type EngineConfig struct {
	Logger      *zap.Logger
	Meter       metric.Meter
	Tracing     middleware.TracingConfig
	MaxBodySize int64
}

// NewEngine builds the gin engine with the global middleware chain and every
// route mounted under /api/v1. Versioned routes require caller identity.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		logger.GinMiddleware(cfg.Logger),
		middleware.HTTPMetrics(cfg.Meter, cfg.Logger),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}

	r := NewRouter(engine)
	for _, g := range DomainGroups(h) {
		r.Register(g)
	}
	r.Setup(middleware.Actor(), middleware.SpanEnricher())
	return engine
}

// DomainGroups declares the API surface, one group per domain
func DomainGroups(h Handlers) []*DomainGroup {
	var groups []*DomainGroup

	if rh := h.Relationships; rh != nil {
		groups = append(groups,
			NewDomainGroup("relationships", "/relationships").
				POST("", rh.Create).
				GET("", rh.List).
				DELETE("", rh.DeleteByChild).
				GET("/history/:childId", rh.History).
				GET("/active/:childId", rh.GetActive).
				PUT("/:id", rh.Update).
				POST("/:id/end", rh.End).
				DELETE("/:id", rh.Delete),
			NewDomainGroup("entities", "/entities").
				GET("/:id/parent-chain", rh.ParentChain).
				GET("/:id/subordinates", rh.Subordinates),
			NewDomainGroup("organization", "/organization").
				GET("/tree", rh.OrganizationTree),
		)
	}

	if dh := h.Devices; dh != nil {
		devices := NewDomainGroup("devices", "/devices").
			POST("/sales", dh.RecordDeviceSale).
			GET("/sales", dh.ListDeviceSales).
			GET("/statistics", dh.Statistics)
		devices.Group("accumulators", "/accumulators").
			GET("", dh.List).
			GET("/:entityId", dh.GetStats).
			GET("/:entityId/simulate", dh.Simulate).
			POST("/:entityId/sales", dh.RecordSale).
			POST("/:entityId/returns", dh.RecordReturn)
		groups = append(groups, devices)
	}

	if ch := h.Commissions; ch != nil {
		groups = append(groups, NewDomainGroup("commissions", "/commissions").
			POST("/quote", ch.Quote).
			POST("/entries", ch.Apply).
			GET("/entries", ch.ListEntries))
	}

	if ih := h.Integrity; ih != nil {
		groups = append(groups, NewDomainGroup("integrity", "/integrity").
			GET("/catalog", ih.Catalog).
			GET("/:table/:id", ih.Check).
			DELETE("/:table/:id", ih.SafeDelete))
	}

	return groups
}
