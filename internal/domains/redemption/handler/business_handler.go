package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"localdeals-backend/internal/domains/redemption/model"
	"localdeals-backend/internal/shared/response"
	"localdeals-backend/pkg/logger"
)

// =====================================================
// CONFIRM
// =====================================================

// ConfirmRedemption godoc
// @Summary Confirm a redemption at the point of sale
// @Description Both the QR content and the display code must match the same pending record
// @Tags Business Redemptions
// @Accept json
// @Produce json
// @Param request body model.ConfirmRedemptionRequest true "Codes scanned or typed by staff"
// @Success 200 {object} response.Response{data=model.ConfirmResult}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 410 {object} response.Response
// @Failure 429 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /v1/business/redemptions/confirm [post]
func (h *RedemptionHandler) ConfirmRedemption(c *gin.Context) {
	businessID, ok := businessFromContext(c)
	if !ok {
		return
	}

	var req model.ConfirmRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, string(model.ReasonValidationFailed), "Invalid or expired code.", err)
		return
	}

	result, err := h.service.ConfirmRedemption(c.Request.Context(), businessID, req.QRCode, req.DisplayCode)
	if err != nil {
		writeServiceError(c, "confirm", err)
		return
	}
	if result.Rejection != nil {
		writeRejection(c, result.Rejection, nil)
		return
	}

	response.Success(c, http.StatusOK, "Redemption confirmed", result)
}

// =====================================================
// LEDGER
// =====================================================

// ListCouponRedemptions godoc
// @Summary List redemptions of a coupon owned by the business
// @Tags Business Redemptions
// @Produce json
// @Param id path string true "Coupon ID (UUID)"
// @Param status query string false "pending | redeemed | expired | cancelled"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} response.Response{data=[]model.Redemption}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /v1/business/coupons/{id}/redemptions [get]
func (h *RedemptionHandler) ListCouponRedemptions(c *gin.Context) {
	businessID, ok := businessFromContext(c)
	if !ok {
		return
	}
	couponID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.ListRedemptionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid query parameters", err)
		return
	}

	page, err := h.service.ListCouponRedemptions(c.Request.Context(), businessID, couponID, req.ToFilter())
	if err != nil {
		writeServiceError(c, "list", err)
		return
	}
	if page.Rejection != nil {
		writeRejection(c, page.Rejection, nil)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, page.Items, &response.Meta{
		Page:  req.Page,
		Limit: req.Limit,
		Total: page.Total,
	})
}

// GetCouponStats godoc
// @Summary Redemption counts and total savings for a coupon
// @Tags Business Redemptions
// @Produce json
// @Param id path string true "Coupon ID (UUID)"
// @Success 200 {object} response.Response{data=model.CouponStats}
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /v1/business/coupons/{id}/redemption-stats [get]
func (h *RedemptionHandler) GetCouponStats(c *gin.Context) {
	businessID, ok := businessFromContext(c)
	if !ok {
		return
	}
	couponID, ok := pathID(c, "id")
	if !ok {
		return
	}

	stats, err := h.service.GetCouponStats(c.Request.Context(), businessID, couponID)
	if err != nil {
		writeServiceError(c, "stats", err)
		return
	}
	if stats.Rejection != nil {
		writeRejection(c, stats.Rejection, nil)
		return
	}

	response.Success(c, http.StatusOK, "", stats)
}

// ExportCouponRedemptions godoc
// @Summary Download the coupon's redemption ledger as XLSX
// @Tags Business Redemptions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Coupon ID (UUID)"
// @Param status query string false "pending | redeemed | expired | cancelled"
// @Success 200 {file} file
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /v1/business/coupons/{id}/redemptions/export [get]
func (h *RedemptionHandler) ExportCouponRedemptions(c *gin.Context) {
	businessID, ok := businessFromContext(c)
	if !ok {
		return
	}
	couponID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.ListRedemptionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid query parameters", err)
		return
	}

	// limit do service quyết định
	filter := req.ToFilter()
	filter.Limit, filter.Offset = 0, 0

	file, page, err := h.service.ExportCouponRedemptions(c.Request.Context(), businessID, couponID, filter)
	if err != nil {
		writeServiceError(c, "export", err)
		return
	}
	if page.Rejection != nil {
		writeRejection(c, page.Rejection, nil)
		return
	}
	defer file.Close()

	filename := fmt.Sprintf("redemptions-%s-%s.xlsx", couponID.String()[:8], time.Now().UTC().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if err := file.Write(c.Writer); err != nil {
		logger.Error("Failed to write ledger export", err)
	}
}
