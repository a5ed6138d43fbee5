package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	swagger "github.com/swaggo/echo-swagger"

	"trade-signal-bot/internal/entity"
	_ "trade-signal-bot/internal/signalbot/docs"
	"trade-signal-bot/internal/signalbot/dto"
	"trade-signal-bot/internal/signalbot/service/servicetest"
	"trade-signal-bot/pkg/logger"
)

func newTestServer(svc *servicetest.SignalService) *echo.Echo {
	e := echo.New()
	h := NewSignalHandler(svc, logger.NewNop())
	h.RegisterHealth(e)
	h.RegisterRoutes(e.Group("/api/v1"))
	return e
}

func do(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSignalHandler_Health(t *testing.T) {
	rec := do(newTestServer(&servicetest.SignalService{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestSignalHandler_GetAllSignals(t *testing.T) {
	svc := &servicetest.SignalService{}
	svc.On("List", mock.Anything, entity.StatusRunValid).Return([]entity.Signal{{
		ID: "a", Asset: "BTC", Direction: entity.DirectionLong, Entry: "100", Stop: "90",
		Status: entity.StatusRunValid, ValidForReentry: true,
	}}, nil).Once()

	rec := do(newTestServer(svc), "/api/v1/signals?status=run_valid")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []dto.SignalView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "a", views[0].ID)
	assert.Contains(t, views[0].StatusText, "🟢 Active")
	svc.AssertExpectations(t)
}

func TestSignalHandler_GetAllSignalsRejectsUnknownStatus(t *testing.T) {
	svc := &servicetest.SignalService{}
	rec := do(newTestServer(svc), "/api/v1/signals?status=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestSignalHandler_GetSignalByID(t *testing.T) {
	svc := &servicetest.SignalService{}
	svc.On("Get", mock.Anything, "missing").Return(nil, entity.ErrNotFound).Once()
	svc.On("Get", mock.Anything, "broken").Return(nil, entity.NewIOError("read", errors.New("eof"))).Once()

	e := newTestServer(svc)
	assert.Equal(t, http.StatusNotFound, do(e, "/api/v1/signals/missing").Code)
	assert.Equal(t, http.StatusInternalServerError, do(e, "/api/v1/signals/broken").Code)
	svc.AssertExpectations(t)
}

func TestSignalHandler_GetSummary(t *testing.T) {
	svc := &servicetest.SignalService{}
	svc.On("SummaryText", mock.Anything).Return("📭 No active signals right now.", nil).Once()

	rec := do(newTestServer(svc), "/api/v1/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var body dto.SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "📭 No active signals right now.", body.Text)
}

func TestSwaggerDocument(t *testing.T) {
	e := newTestServer(&servicetest.SignalService{})
	e.GET("/swagger/*", swagger.WrapHandler)

	rec := do(e, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/signals/{id}"`)
	assert.Contains(t, rec.Body.String(), `"dto.SignalView"`)
}
