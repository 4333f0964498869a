package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPresale(t *testing.T) {
	env := setupEnv(t, offlinePricing())

	w := env.request(t, http.MethodGet, "/api/presale", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "76735.34", body["totalRaised"])
	assert.Equal(t, "200000", body["totalSupply"])
	assert.Equal(t, "65", body["currentRate"])
	assert.Equal(t, "38.37", body["percentage"])
	assert.Equal(t, true, body["isActive"])
}

func TestCalculateUsesFallbackWhenFeedIsDown(t *testing.T) {
	env := setupEnv(t, offlinePricing())

	w := env.request(t, http.MethodPost, "/api/presale/calculate", map[string]interface{}{
		"currency":  "ETH",
		"payAmount": 1,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, 2400.0, body["usdtValue"])
	assert.Equal(t, 156000.0, body["tokenAmount"]) // 2400 USDT at 65 tokens/USDT
	assert.Equal(t, "fallback", body["priceSource"])
}

func TestCalculateRejectsBadInput(t *testing.T) {
	env := setupEnv(t, offlinePricing())

	cases := []map[string]interface{}{
		{"currency": "DOGE", "payAmount": 1},
		{"currency": "ETH", "payAmount": 0},
		{"currency": "ETH", "payAmount": -3},
	}
	for _, body := range cases {
		w := env.request(t, http.MethodPost, "/api/presale/calculate", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
	}
}
