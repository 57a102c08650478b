package router

import (
	"net/http"
	"time"

	"happymeter/config"
	"happymeter/internal/domain"
	"happymeter/internal/handler"
	"happymeter/internal/loyalty"
	"happymeter/internal/middleware"
	"happymeter/internal/repository"
	"happymeter/internal/service"
	"happymeter/internal/ws"
	"happymeter/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup builds the HTTP engine. The returned stop func releases the background workers
// Setup started and must be called once the server has shut down.
func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) (*gin.Engine, func()) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Server.RequestLog {
		r.Use(gin.Logger())
	}
	limiter := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	r.Use(middleware.RateLimit(limiter))

	if cloud == nil {
		cloud = cloudinary.Disabled()
	}

	// Repositories
	programRepo := repository.NewProgramRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	tierRepo := repository.NewTierRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	eventRepo := repository.NewEventRepository(db)
	redemptionRepo := repository.NewRedemptionRepository(db)

	engine := loyalty.NewEngine(repository.NewLoyaltyStore(db), loyalty.Options{
		Location:              cfg.Loyalty.Location(),
		VisitHistoryLimit:     cfg.Loyalty.VisitHistoryLimit,
		RedemptionCodeRetries: cfg.Loyalty.RedemptionCodeRetries,
	})
	feedHub := ws.NewHub()

	// Services
	checkInSvc := service.NewCheckInService(customerRepo, engine)
	redemptionSvc := service.NewRedemptionService(redemptionRepo)

	// Handlers
	programHandler := handler.NewProgramHandler(programRepo, ruleRepo, tierRepo, rewardRepo, customerRepo, eventRepo)
	eventHandler := handler.NewEventHandler(engine, customerRepo, feedHub)
	checkInHandler := handler.NewCheckInHandler(checkInSvc, feedHub)
	redemptionHandler := handler.NewRedemptionHandler(redemptionSvc, customerRepo)
	uploadHandler := handler.NewUploadHandler(cloud, rewardRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)
	ownerMw := middleware.ProgramOwner(programRepo)
	ownerOnly := middleware.RequireRole(domain.RoleOwner)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/programs", authMw, ownerOnly, programHandler.CreateProgram)
		api.GET("/programs", authMw, programHandler.ListPrograms)

		// staff may record activity; configuration is owner-only
		p := api.Group("/programs/:program_id")
		p.Use(authMw, ownerMw)
		{
			p.POST("/events", eventHandler.Process)
			p.POST("/checkins", checkInHandler.CheckIn)
			p.POST("/redemptions/claim", redemptionHandler.Claim)

			p.GET("/customers", programHandler.ListCustomers)
			p.GET("/customers/:customer_id/events", programHandler.ListCustomerEvents)
			p.GET("/customers/:customer_id/redemptions", redemptionHandler.ListForCustomer)

			p.GET("/rules", programHandler.ListRules)
			p.POST("/rules", ownerOnly, programHandler.CreateRule)
			p.PATCH("/rules/:rule_id", ownerOnly, programHandler.UpdateRule)

			p.GET("/tiers", programHandler.ListTiers)
			p.POST("/tiers", ownerOnly, programHandler.CreateTier)

			p.GET("/rewards", programHandler.ListRewards)
			p.POST("/rewards", ownerOnly, programHandler.CreateReward)
			p.POST("/rewards/:reward_id/image", ownerOnly, uploadHandler.UploadRewardImage)
		}
	}

	r.GET("/ws/programs/:program_id/feed", middleware.QueryTokenAuth(&cfg.JWT), ownerMw, ws.UpgradeFeedWS(feedHub))

	return r, limiter.Close
}
