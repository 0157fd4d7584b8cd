package router

import (
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/config"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/handler"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/infra"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/middleware"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/repository"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/service"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators shared with main: the stock locks
// must be the same instance the reconcile job uses.
type Deps struct {
	Locks       *ledger.KeyedMutex
	EmbeddingCB *infra.CircuitBreaker
	Limiters    Limiters
	// Mailer delivers emailed stock reports; nil disables the endpoint.
	Mailer handler.ReportMailer
}

// Limiters are purged by the caller's PurgeLoop.
type Limiters struct {
	API   *middleware.WindowLimiter
	Login *middleware.WindowLimiter
}

func NewLimiters(cfg *config.Config) Limiters {
	return Limiters{
		API:   middleware.NewWindowLimiter(cfg.RateLimit, time.Minute),
		Login: middleware.NewWindowLimiter(20, time.Minute),
	}
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(deps.Limiters.API))

	// ── Infrastructure ───────────────────────────────────────────────────────
	embedder := infra.NewEmbeddingClient(cfg.EmbeddingServiceURL, cfg.EmbeddingTimeout(), deps.EmbeddingCB)
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	fabricRepo := repository.NewFabricRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	embeddingRepo := repository.NewEmbeddingRepository(db)
	qrRepo := repository.NewQRCodeRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	inventorySvc := service.NewInventoryService(productRepo, fabricRepo, txRepo, deps.Locks, rdb, cfg.OverviewTTL(), dispatcher)
	fabricSvc := service.NewFabricService(fabricRepo, productRepo, txRepo, deps.Locks, dispatcher)
	productSvc := service.NewProductService(productRepo, fabricRepo, embeddingRepo, qrRepo, txRepo, deps.Locks, embedder, cfg.ImageMatchThreshold)
	qrSvc := service.NewQRService(qrRepo, productRepo, infra.NewQRGenerator(cfg.FrontendBaseURL), deps.Locks)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc, fabricSvc, deps.Mailer, cfg.AlertEmail)
	fabricsH := handler.NewFabricsHandler(fabricSvc)
	productsH := handler.NewProductsHandler(productSvc, cfg.UploadDir)
	qrH := handler.NewQRHandler(qrSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, deps.EmbeddingCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(deps.Limiters.Login), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes: reads for every role, writes for the owner only
	anyRole := middleware.RequireRole(service.RoleOwner, service.RoleStaff)
	ownerOnly := middleware.RequireRole(service.RoleOwner)
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		inv := v1.Group("/inventory")
		{
			inv.GET("/overview", anyRole, inventoryH.Overview)
			inv.GET("/alerts/low-stock", anyRole, inventoryH.LowStockAlerts)
			inv.GET("/products", anyRole, inventoryH.ListProducts)
			inv.GET("/transactions", anyRole, inventoryH.ListTransactions)
			inv.GET("/report.pdf", anyRole, inventoryH.Report)
			inv.POST("/report/email", ownerOnly, inventoryH.EmailReport)
			inv.PATCH("/:productId/stock", ownerOnly, inventoryH.UpdateStock)
			inv.POST("/:productId/produce", ownerOnly, inventoryH.Produce)
		}

		fabrics := v1.Group("/fabrics")
		{
			fabrics.GET("", anyRole, fabricsH.List)
			fabrics.GET("/:fabricId", anyRole, fabricsH.Get)
			fabrics.GET("/:fabricId/transactions", anyRole, fabricsH.ListTransactions)
			fabrics.GET("/:fabricId/usage", anyRole, fabricsH.ListUsage)
			fabrics.POST("", ownerOnly, fabricsH.Create)
			fabrics.POST("/:fabricId/stock", ownerOnly, fabricsH.AdjustStock)
			fabrics.POST("/:fabricId/usage/rebuild", ownerOnly, fabricsH.RebuildUsage)
			fabrics.PATCH("/:fabricId/discontinue", ownerOnly, fabricsH.Discontinue)
			fabrics.DELETE("/:fabricId", ownerOnly, fabricsH.Deactivate)
		}

		products := v1.Group("/products")
		{
			products.GET("", anyRole, productsH.List)
			products.GET("/:productId", anyRole, productsH.Get)
			products.POST("/search-by-image", anyRole, productsH.SearchByImage)
			products.POST("", ownerOnly, productsH.Create)
			products.DELETE("/:productId", ownerOnly, productsH.Deactivate)
			products.PATCH("/:productId/discontinue", ownerOnly, productsH.Discontinue)
			products.POST("/:productId/embeddings", ownerOnly, productsH.IndexImage)
			products.PUT("/:productId", ownerOnly, productsH.Update)
			products.DELETE("/:productId/hard", ownerOnly, productsH.HardDelete)
			products.POST("/:productId/variants", ownerOnly, productsH.AddVariant)
			products.DELETE("/:productId/variants/:variantId", ownerOnly, productsH.RemoveVariant)
			products.GET("/:productId/qr", ownerOnly, qrH.Get)
			products.GET("/:productId/qr.png", ownerOnly, qrH.PNG)
			products.DELETE("/:productId/qr", ownerOnly, qrH.Delete)
		}

		qr := v1.Group("/qr-codes", ownerOnly)
		{
			qr.GET("", qrH.List)
			qr.POST("/generate", qrH.GenerateAll)
			qr.DELETE("", qrH.Clear)
		}
	}

	// Swagger UI only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
