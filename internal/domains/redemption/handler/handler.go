package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"localdeals-backend/internal/domains/redemption/model"
	"localdeals-backend/internal/domains/redemption/service"
	"localdeals-backend/internal/shared"
	"localdeals-backend/internal/shared/middleware"
	"localdeals-backend/internal/shared/response"
	"localdeals-backend/internal/shared/utils"
	"localdeals-backend/pkg/logger"
)

// =====================================================
// REDEMPTION HANDLER
// =====================================================
type RedemptionHandler struct {
	service service.ServiceInterface
}

func NewRedemptionHandler(svc service.ServiceInterface) *RedemptionHandler {
	return &RedemptionHandler{service: svc}
}

// =====================================================
// HELPERS
// =====================================================

// rejectionDetails đi kèm error envelope để client render usage
type rejectionDetails struct {
	Retryable bool                        `json:"retryable"`
	Usage     *model.UsageLimitValidation `json:"usage,omitempty"`
}

func writeRejection(c *gin.Context, rej *model.Rejection, usage *model.UsageLimitValidation) {
	response.ErrorWithDetails(c, rej.HTTPStatus, string(rej.Reason), rej.Message, rejectionDetails{
		Retryable: rej.Reason.Retryable(),
		Usage:     usage,
	})
}

// writeServiceError: mọi infra error đều trả NETWORK_ERROR với message cố định,
// error gốc chỉ được log
func writeServiceError(c *gin.Context, op string, err error) {
	logger.Warn("Redemption operation failed", map[string]interface{}{
		"operation":  op,
		"request_id": c.GetString(shared.ContextRequestID),
		"error":      err.Error(),
	})
	writeRejection(c, model.RejectServiceUnavailable, nil)
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, ok := utils.ParseUUIDParam(c.Param(name))
	if !ok {
		response.BadRequest(c, "Invalid "+name+" format")
	}
	return id, ok
}

func subscriberFromContext(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
	}
	return id, ok
}

func businessFromContext(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.BusinessID(c)
	if !ok {
		response.Forbidden(c, "Business account required")
	}
	return id, ok
}
