package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pepewuff/backend/internal/config"
	"github.com/pepewuff/backend/internal/handlers"
	"github.com/pepewuff/backend/internal/middleware"
	"github.com/pepewuff/backend/internal/services/presale"
	"github.com/pepewuff/backend/internal/services/pricing"
	"github.com/pepewuff/backend/internal/services/referral"
	"github.com/pepewuff/backend/internal/services/transaction"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	cfg *config.Config,
	presaleSvc *presale.Service,
	pricingSvc *pricing.Service,
	referralSvc *referral.Service,
	txSvc *transaction.Service,
	rateLimiter *middleware.RateLimiter,
) {
	healthHandler := handlers.NewHealthHandler(db)
	presaleHandler := handlers.NewPresaleHandler(presaleSvc, pricingSvc)
	txHandler := handlers.NewTransactionHandler(txSvc)
	referralHandler := handlers.NewReferralHandler(referralSvc)
	adminHandler := handlers.NewAdminHandler(db, cfg.JWT, presaleSvc, referralSvc, txSvc)

	router.GET("/health", healthHandler.Health)

	api := router.Group("/api")
	api.Use(rateLimiter.Middleware())
	{
		api.GET("/presale", presaleHandler.GetPresale)
		api.POST("/presale/calculate", presaleHandler.Calculate)

		api.POST("/transactions", txHandler.Create)
		api.GET("/transactions/:walletAddress", txHandler.ListByWallet)
		api.GET("/wallet/purchase", txHandler.WalletPurchases)

		api.GET("/referral/:code", referralHandler.GetCode)
		api.POST("/referral/apply", referralHandler.Apply)
	}

	admin := router.Group("/api/admin")
	admin.Use(rateLimiter.Middleware())
	{
		admin.POST("/login", adminHandler.Login)

		protected := admin.Group("")
		protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
		{
			protected.PATCH("/presale", adminHandler.UpdatePresale)
			protected.POST("/referral-codes", adminHandler.CreateReferralCode)
			protected.PATCH("/transactions/:id/status", adminHandler.UpdateTransactionStatus)
		}
	}
}
