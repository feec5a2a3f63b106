package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/paridu/ai-outreach-optimizer/docs"
	"github.com/paridu/ai-outreach-optimizer/internal/dto"
	"github.com/paridu/ai-outreach-optimizer/internal/service"
)

type Handler struct {
	triggerService service.TriggerServicer
	reportService  service.ReportServicer
	router         *gin.Engine
	log            *zap.Logger
}

func NewHandler(triggerService service.TriggerServicer, reportService service.ReportServicer, log *zap.Logger) *Handler {
	h := &Handler{
		triggerService: triggerService,
		reportService:  reportService,
		router:         gin.Default(),
		log:            log,
	}

	h.registerRoutes()

	return h
}

// WithMetricsEndpoint exposes a metrics handler on path
func (h *Handler) WithMetricsEndpoint(path string, metricsHandler http.Handler) *Handler {
	h.router.GET(path, gin.WrapH(metricsHandler))
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)

	v1 := h.router.Group("/api/v1")
	v1.POST("/trigger/execute", h.executeTrigger)
	v1.POST("/trigger/async-event", h.submitTrigger)
	v1.POST("/trigger/queue-event", h.enqueueTrigger)
	v1.GET("/executions/:event_id", h.getExecution)
	v1.POST("/rules/reload", h.reloadRules)
	v1.GET("/reports/deliveries", h.getDeliveryReport)

	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the engine is running
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status: "online",
		Engine: "active",
	})
}

// executeTrigger handles POST /api/v1/trigger/execute
// @Summary Execute a trigger synchronously
// @Description Match, personalize, dispatch and record a marketing event, returning the execution record
// @Tags trigger
// @Accept json
// @Produce json
// @Param event body dto.TriggerEventRequest true "Marketing event"
// @Success 200 {object} dto.ExecutionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/trigger/execute [post]
func (h *Handler) executeTrigger(c *gin.Context) {
	var req dto.TriggerEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid trigger request",
			zap.Error(err),
			zap.String("event_type", req.EventType))
		h.validationError(c, err)
		return
	}

	rec, err := h.triggerService.Execute(c.Request.Context(), req.ToDomain())
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			h.validationError(c, err)
			return
		}
		h.log.Error("Failed to execute trigger",
			zap.Error(err),
			zap.String("event_id", req.EventID),
			zap.String("customer_id", req.CustomerID))
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewExecutionResponse(rec))
}

// submitTrigger handles POST /api/v1/trigger/async-event
// @Summary Submit a trigger for background execution
// @Description Validate a marketing event and hand it to a background worker
// @Tags trigger
// @Accept json
// @Produce json
// @Param event body dto.TriggerEventRequest true "Marketing event"
// @Success 202 {object} dto.AcceptedResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/trigger/async-event [post]
func (h *Handler) submitTrigger(c *gin.Context) {
	var req dto.TriggerEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid trigger request",
			zap.Error(err),
			zap.String("event_type", req.EventType))
		h.validationError(c, err)
		return
	}

	eventID, err := h.triggerService.Submit(req.ToDomain())
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			h.validationError(c, err)
		case errors.Is(err, service.ErrCapacityExceeded):
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Error:   "capacity_exceeded",
				Message: err.Error(),
			})
		default:
			h.log.Error("Failed to submit trigger",
				zap.Error(err),
				zap.String("event_id", req.EventID))
			h.internalError(c, err)
		}
		return
	}

	h.log.Info("Event accepted",
		zap.String("event_id", eventID),
		zap.String("event_type", req.EventType))

	c.JSON(http.StatusAccepted, dto.AcceptedResponse{
		Status:  "accepted",
		EventID: eventID,
	})
}

// enqueueTrigger handles POST /api/v1/trigger/queue-event
// @Summary Enqueue a trigger for the queue consumer
// @Description Validate a marketing event and publish it to the intake queue
// @Tags trigger
// @Accept json
// @Produce json
// @Param event body dto.TriggerEventRequest true "Marketing event"
// @Success 202 {object} dto.AcceptedResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/trigger/queue-event [post]
func (h *Handler) enqueueTrigger(c *gin.Context) {
	var req dto.TriggerEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid trigger request",
			zap.Error(err),
			zap.String("event_type", req.EventType))
		h.validationError(c, err)
		return
	}

	eventID, err := h.triggerService.Enqueue(c.Request.Context(), req.ToDomain())
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			h.validationError(c, err)
		case errors.Is(err, service.ErrQueueDisabled):
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Error:   "queue_disabled",
				Message: err.Error(),
			})
		default:
			h.log.Error("Failed to enqueue trigger",
				zap.Error(err),
				zap.String("event_id", req.EventID),
				zap.String("customer_id", req.CustomerID))
			h.internalError(c, err)
		}
		return
	}

	h.log.Info("Event queued",
		zap.String("event_id", eventID),
		zap.String("event_type", req.EventType))

	c.JSON(http.StatusAccepted, dto.AcceptedResponse{
		Status:  "queued",
		EventID: eventID,
	})
}

// getExecution handles GET /api/v1/executions/:event_id
// @Summary Get an execution record
// @Description Retrieve the stored execution record of an event
// @Tags executions
// @Produce json
// @Param event_id path string true "Event ID"
// @Success 200 {object} dto.ExecutionResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/executions/{event_id} [get]
func (h *Handler) getExecution(c *gin.Context) {
	eventID := c.Param("event_id")

	rec, err := h.triggerService.GetExecution(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrExecutionNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
			})
			return
		}
		h.log.Error("Failed to get execution",
			zap.Error(err),
			zap.String("event_id", eventID))
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewExecutionResponse(rec))
}

// reloadRules handles POST /api/v1/rules/reload
// @Summary Reload campaign rules
// @Description Re-read the rule file and atomically swap the active rule table
// @Tags rules
// @Produce json
// @Success 200 {object} dto.ReloadRulesResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/rules/reload [post]
func (h *Handler) reloadRules(c *gin.Context) {
	table, err := h.triggerService.ReloadRules()
	if err != nil {
		h.log.Error("Failed to reload rules", zap.Error(err))
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReloadRulesResponse{
		Version: table.Version(),
		Rules:   table.Len(),
	})
}

// getDeliveryReport handles GET /api/v1/reports/deliveries
// @Summary Get delivery report
// @Description Retrieve aggregated execution counts with optional grouping by campaign, channel, outcome, hour, or day
// @Tags reports
// @Produce json
// @Param from query int true "Start timestamp (Unix epoch)" example:"1723475612"
// @Param to query int true "End timestamp (Unix epoch)" example:"1723562012"
// @Param group_by query string false "Field to group by" Enums(campaign, channel, outcome, hour, day) example:"campaign"
// @Success 200 {object} dto.GetDeliveryReportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/reports/deliveries [get]
func (h *Handler) getDeliveryReport(c *gin.Context) {
	var req dto.GetDeliveryReportRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid delivery report request", zap.Error(err))
		h.validationError(c, err)
		return
	}

	response, err := h.reportService.GetDeliveryReport(c.Request.Context(), &req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			h.validationError(c, err)
		case errors.Is(err, service.ErrReportingDisabled):
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Error:   "reporting_disabled",
				Message: err.Error(),
			})
		default:
			h.log.Error("Failed to get delivery report",
				zap.Error(err),
				zap.Int64("from", req.From),
				zap.Int64("to", req.To))
			h.internalError(c, err)
		}
		return
	}

	h.log.Info("Delivery report retrieved",
		zap.Uint64("total_count", response.TotalCount),
		zap.Uint64("success_count", response.SuccessCount))

	c.JSON(http.StatusOK, response)
}

func (h *Handler) validationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}
