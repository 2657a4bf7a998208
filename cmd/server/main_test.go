package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/events"
)

func TestCORSMiddleware(t *testing.T) {
	called := false
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/settleup.v1.SettlementService/Recompute", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called, "preflight stops at the middleware")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/settleup.v1.SettlementService/Recompute", nil))
	assert.True(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewPublisher_Disabled(t *testing.T) {
	publisher := newPublisher(&config.Config{})
	assert.IsType(t, events.NopPublisher{}, publisher)
}
