package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/pepewuff/backend/internal/services/referral"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReferralCode(t *testing.T, env *testEnv, code string, discount string) {
	_, err := referral.NewService(env.db).Create(context.Background(), code, decimal.RequireFromString(discount))
	require.NoError(t, err)
}

func TestGetReferralCode(t *testing.T) {
	env := setupEnv(t, offlinePricing())
	seedReferralCode(t, env, "WUFF10", "10")

	w := env.request(t, http.MethodGet, "/api/referral/wuff10", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "WUFF10", body["code"])
	assert.Equal(t, "10", body["discountPercent"])
	assert.Equal(t, true, body["isValid"])
}

func TestGetReferralCodeNotFound(t *testing.T) {
	env := setupEnv(t, offlinePricing())

	w := env.request(t, http.MethodGet, "/api/referral/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Invalid or inactive referral code", decodeBody(t, w)["message"])
}

func TestApplyReferralCode(t *testing.T) {
	env := setupEnv(t, offlinePricing())
	seedReferralCode(t, env, "WUFF10", "10")

	w := env.request(t, http.MethodPost, "/api/referral/apply", map[string]string{"code": "wuff10"})
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "WUFF10", body["code"])
	assert.Equal(t, true, body["applied"])

	// Each apply consumes one use
	rc, err := referral.NewService(env.db).Lookup(context.Background(), "WUFF10")
	require.NoError(t, err)
	assert.Equal(t, 1, rc.UsageCount)
}

func TestApplyReferralCodeMissingBody(t *testing.T) {
	env := setupEnv(t, offlinePricing())

	w := env.request(t, http.MethodPost, "/api/referral/apply", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyReferralCodeUnknown(t *testing.T) {
	env := setupEnv(t, offlinePricing())

	w := env.request(t, http.MethodPost, "/api/referral/apply", map[string]string{"code": "NOPE"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
