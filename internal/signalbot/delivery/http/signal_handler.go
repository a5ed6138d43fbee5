package http

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/labstack/echo/v4"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/internal/signalbot/dto"
	"trade-signal-bot/internal/signalbot/service"
	"trade-signal-bot/pkg/logger"
	"trade-signal-bot/pkg/utils"
)

// SignalHandler serves the read-only signal API.
type SignalHandler struct {
	signalService service.SignalService
	logger        *logger.Logger
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(signalService service.SignalService, logger *logger.Logger) *SignalHandler {
	return &SignalHandler{signalService: signalService, logger: logger}
}

// RegisterRoutes registers the signal routes to the Echo group.
func (h *SignalHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/signals", h.GetAllSignals)
	g.GET("/signals/:id", h.GetSignalByID)
	g.GET("/summary", h.GetSummary)
}

// RegisterHealth registers the health check on the root router.
func (h *SignalHandler) RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

// Health reports that the process is serving.
func (h *SignalHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Time: utils.TimeNowUTC()})
}

// GetAllSignals godoc
// @Summary List signals
// @Description Get every signal, newest first, optionally filtered by lifecycle status
// @Tags signals
// @Produce  json
// @Param   status  query   string  false   "Lifecycle status"  Enums(RUN_VALID, RUN_BE, STOPPED_BE, STOPPED_OUT, CLOSED)
// @Success 200 {array} dto.SignalView
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /signals [get]
func (h *SignalHandler) GetAllSignals(c echo.Context) error {
	status := entity.Status(strings.ToUpper(c.QueryParam("status")))
	if status != "" && !status.Active() && !status.Terminal() {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid status"})
	}

	signals, err := h.signalService.List(c.Request().Context(), status)
	if err != nil {
		h.logger.Error("Failed to list signals", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list signals"})
	}
	return c.JSON(http.StatusOK, service.NewSignalViews(signals))
}

// GetSignalByID godoc
// @Summary Get a signal by ID
// @Description Get a single signal with its computed result and status text
// @Tags signals
// @Produce  json
// @Param   id  path    string  true    "Signal ID"
// @Success 200 {object} dto.SignalView
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /signals/{id} [get]
func (h *SignalHandler) GetSignalByID(c echo.Context) error {
	signal, err := h.signalService.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, entity.ErrNotFound) {
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Signal not found"})
	}
	if err != nil {
		h.logger.Error("Failed to get signal", logger.ErrorField(err), logger.StringField("signal_id", c.Param("id")))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get signal"})
	}
	return c.JSON(http.StatusOK, service.NewSignalView(*signal))
}

// GetSummary godoc
// @Summary Get the summary
// @Description Get the summary of active signals as it would be posted
// @Tags summary
// @Produce  json
// @Success 200 {object} dto.SummaryResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /summary [get]
func (h *SignalHandler) GetSummary(c echo.Context) error {
	text, err := h.signalService.SummaryText(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to render summary", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to render summary"})
	}
	return c.JSON(http.StatusOK, dto.SummaryResponse{Text: text})
}
