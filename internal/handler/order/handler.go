package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/patientcare/hms-api/pkg/errors"
	"github.com/patientcare/hms-api/pkg/metrics"

	"github.com/patientcare/hms-api/internal/handler"
	"github.com/patientcare/hms-api/internal/model"
	"github.com/patientcare/hms-api/internal/service/order"
)

type Handler struct {
	service order.OrderService
	metrics *metrics.Metrics
}

func NewHandler(service order.OrderService, m *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		metrics: m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("/:id/orders", h.SubmitOrder)
		patients.GET("/:id/orders", h.ListPatientOrders)
	}
	r.GET("/orders/patients", h.ListPatientsWithOrders)
}

func (h *Handler) SubmitOrder(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var req model.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	clinicianID := clinicianFromContext(c)

	result, err := h.service.Submit(c.Request.Context(), patientID, clinicianID, &req)
	if err != nil {
		h.metrics.OrdersRejected.WithLabelValues(string(req.Kind), rejectionReason(err)).Inc()
		handler.Error(c, err)
		return
	}

	h.metrics.OrdersSubmitted.WithLabelValues(string(result.Kind)).Inc()
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) ListPatientOrders(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	orders, err := h.service.PatientOrders(c.Request.Context(), patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(orders))
}

func (h *Handler) ListPatientsWithOrders(c *gin.Context) {
	patients, err := h.service.PatientsWithOrders(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

// clinicianFromContext reads the authenticated clinician id set by the
// auth middleware. uuid.Nil when absent; the service rejects that.
func clinicianFromContext(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(c.GetString("clinicianID"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func rejectionReason(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrBadRequest:
		return "bad_request"
	case apperrors.ErrUnprocessable:
		return "business_rule"
	case apperrors.ErrNotFound:
		return "not_found"
	default:
		return "internal"
	}
}
