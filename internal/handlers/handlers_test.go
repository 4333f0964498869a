package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/pepewuff/backend/internal/config"
	"github.com/pepewuff/backend/internal/middleware"
	"github.com/pepewuff/backend/internal/models"
	"github.com/pepewuff/backend/internal/services/presale"
	"github.com/pepewuff/backend/internal/services/pricing"
	"github.com/pepewuff/backend/internal/services/referral"
	"github.com/pepewuff/backend/internal/services/transaction"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires real services over an in-memory database behind a gin router
// with the same route layout as production.
type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

var testJWT = config.JWTConfig{Secret: "test-secret", Expiration: 1}

func setupEnv(t *testing.T, pricingCfg config.PricingConfig) *testEnv {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.PresaleStage{},
		&models.Transaction{},
		&models.ReferralCode{},
		&models.AdminUser{},
	))

	presaleSvc := presale.NewService(db)
	pricingSvc := pricing.NewService(pricingCfg)
	referralSvc := referral.NewService(db)
	txSvc := transaction.NewService(db, nil)

	presaleHandler := NewPresaleHandler(presaleSvc, pricingSvc)
	txHandler := NewTransactionHandler(txSvc)
	referralHandler := NewReferralHandler(referralSvc)
	adminHandler := NewAdminHandler(db, testJWT, presaleSvc, referralSvc, txSvc)

	router := gin.New()
	api := router.Group("/api")
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
	{
		admin.POST("/login", adminHandler.Login)

		protected := admin.Group("")
		protected.Use(middleware.AuthMiddleware(testJWT.Secret))
		{
			protected.PATCH("/presale", adminHandler.UpdatePresale)
			protected.POST("/referral-codes", adminHandler.CreateReferralCode)
			protected.PATCH("/transactions/:id/status", adminHandler.UpdateTransactionStatus)
		}
	}

	return &testEnv{db: db, router: router}
}

// offlinePricing points the price feed at a closed port so quotes come from
// the fallback table without any network wait.
func offlinePricing() config.PricingConfig {
	return config.PricingConfig{
		QuoteURL:     "http://127.0.0.1:1",
		CacheTTL:     time.Minute,
		FetchTimeout: 100 * time.Millisecond,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
