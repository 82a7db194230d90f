package pharmacy

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/patientcare/hms-api/pkg/metrics"

	"github.com/patientcare/hms-api/internal/handler"
	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/service/pharmacy"
)

type Handler struct {
	service pharmacy.PharmacyService
	metrics *metrics.Metrics
}

func NewHandler(service pharmacy.PharmacyService, m *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		metrics: m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	ph := r.Group("/pharmacy")
	{
		ph.GET("/queue", h.Queue)
		ph.GET("/stats", h.Stats)
		ph.GET("/history", h.History)
		ph.POST("/charges", h.CreateCharge)
		ph.GET("/charges/:id", h.GetCharge)
		ph.POST("/charges/:id/dispense", h.Dispense)
		ph.POST("/charges/:id/dispense-items", h.PartialDispense)
	}
}

func (h *Handler) Queue(c *gin.Context) {
	charges, err := h.service.Queue(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(charges))
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) History(c *gin.Context) {
	from, err := parseDateQuery(c, "from")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid from date"))
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid to date"))
		return
	}

	status := model.ChargeStatus(c.Query("status"))
	switch status {
	case "", model.ChargeStatusCompleted, model.ChargeStatusPartial:
	default:
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid status filter"))
		return
	}

	charges, err := h.service.History(c.Request.Context(), from, to, status)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(charges))
}

func (h *Handler) CreateCharge(c *gin.Context) {
	var req model.CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	charge, err := h.service.CreateCharge(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(charge))
}

func (h *Handler) GetCharge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid charge ID"))
		return
	}

	charge, err := h.service.GetCharge(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(charge))
}

func (h *Handler) Dispense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid charge ID"))
		return
	}

	result, err := h.service.Dispense(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	h.metrics.ItemsDispensed.Add(float64(result.ItemsDispensed))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) PartialDispense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid charge ID"))
		return
	}

	var req model.PartialDispenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.PartialDispense(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	h.metrics.ItemsDispensed.Add(float64(result.ItemsDispensed))
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
