package lab

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/patientcare/hms-api/internal/handler"
	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/service/lab"
)

type Handler struct {
	service lab.LabService
}

func NewHandler(service lab.LabService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	labs := r.Group("/lab")
	{
		labs.GET("/queue", h.Queue)
		labs.GET("/stats", h.Stats)
		labs.POST("/charges", h.CreateCharges)
		labs.PUT("/assignments/:id/complete", h.MarkCompleted)
		labs.GET("/patients/:id/history", h.History)
	}
}

func (h *Handler) Queue(c *gin.Context) {
	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date"))
			return
		}
		date = &parsed
	}

	assignments, err := h.service.Queue(c.Request.Context(), date)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(assignments))
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) CreateCharges(c *gin.Context) {
	var req model.CreateLabChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	assignments, err := h.service.CreateCharges(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(assignments))
}

func (h *Handler) MarkCompleted(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid assignment ID"))
		return
	}

	if err := h.service.MarkCompleted(c.Request.Context(), id); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) History(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	assignments, err := h.service.History(c.Request.Context(), patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(assignments))
}
