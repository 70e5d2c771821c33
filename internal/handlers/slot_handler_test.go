package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func performRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGenerateSlotsParamValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSlotHandler(nil, testLogger())
	router := gin.New()
	router.GET("/slots", handler.GenerateSlots)

	t.Run("Missing Params", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/slots")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeEnvelope(t, w)
		assert.False(t, resp.Status)
		assert.Contains(t, resp.Message, "venue_id and date are required")
	})

	t.Run("Bad Venue ID", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/slots?venue_id=abc&date=2026-09-15")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeEnvelope(t, w)
		assert.False(t, resp.Status)
		assert.Contains(t, resp.Message, "valid UUID")
	})
}

func TestBookingListingParamValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBookingHandler(nil, nil, testLogger())
	router := gin.New()
	router.GET("/bookings/active", handler.ActiveBookings)
	router.GET("/bookings/history", handler.BookingHistory)

	t.Run("Missing User ID", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/bookings/active")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Bad User ID", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/bookings/history?user_id=nope")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeEnvelope(t, w)
		assert.False(t, resp.Status)
		assert.Contains(t, resp.Message, "valid UUID")
	})
}
