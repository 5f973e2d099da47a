package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"localdeals-backend/internal/shared/response"
)

// =====================================================
// ELIGIBILITY
// =====================================================

// CheckEligibility godoc
// @Summary Check whether the subscriber can redeem a coupon
// @Description Read-only. A denied check still returns 200 with can_redeem=false
// @Tags Redemptions
// @Produce json
// @Param id path string true "Coupon ID (UUID)"
// @Success 200 {object} response.Response{data=model.ValidationResult}
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /v1/coupons/{id}/redemption-eligibility [get]
func (h *RedemptionHandler) CheckEligibility(c *gin.Context) {
	subscriberID, ok := subscriberFromContext(c)
	if !ok {
		return
	}
	couponID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.ValidateRedemption(c.Request.Context(), subscriberID, couponID)
	if err != nil {
		writeServiceError(c, "validate", err)
		return
	}

	response.Success(c, http.StatusOK, "", result)
}

// =====================================================
// CREATE
// =====================================================

// CreateRedemption godoc
// @Summary Issue a time-boxed redemption code
// @Description Re-validates, supersedes any live code for the pair and returns the QR content and display code
// @Tags Redemptions
// @Produce json
// @Param id path string true "Coupon ID (UUID)"
// @Success 201 {object} response.Response{data=model.CreateResult}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 410 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /v1/coupons/{id}/redemptions [post]
func (h *RedemptionHandler) CreateRedemption(c *gin.Context) {
	subscriberID, ok := subscriberFromContext(c)
	if !ok {
		return
	}
	couponID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.CreateRedemption(c.Request.Context(), subscriberID, couponID)
	if err != nil {
		writeServiceError(c, "create", err)
		return
	}
	if result.Rejection != nil {
		writeRejection(c, result.Rejection, &result.Usage)
		return
	}

	response.Success(c, http.StatusCreated, "Redemption code issued", result)
}

// =====================================================
// GET
// =====================================================

// GetRedemption godoc
// @Summary Get a redemption with its countdown
// @Tags Redemptions
// @Produce json
// @Param id path string true "Redemption ID (UUID)"
// @Success 200 {object} response.Response{data=model.RedemptionView}
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /v1/redemptions/{id} [get]
func (h *RedemptionHandler) GetRedemption(c *gin.Context) {
	subscriberID, ok := subscriberFromContext(c)
	if !ok {
		return
	}
	redemptionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	view, err := h.service.GetRedemption(c.Request.Context(), redemptionID, subscriberID)
	if err != nil {
		writeServiceError(c, "get", err)
		return
	}
	if view.Rejection != nil {
		writeRejection(c, view.Rejection, nil)
		return
	}

	response.Success(c, http.StatusOK, "", view)
}

// =====================================================
// CANCEL
// =====================================================

// CancelRedemption godoc
// @Summary Cancel a pending redemption
// @Description Terminal redemptions are left unchanged and returned with their current status
// @Tags Redemptions
// @Produce json
// @Param id path string true "Redemption ID (UUID)"
// @Success 200 {object} response.Response{data=model.CancelResult}
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /v1/redemptions/{id}/cancel [post]
func (h *RedemptionHandler) CancelRedemption(c *gin.Context) {
	subscriberID, ok := subscriberFromContext(c)
	if !ok {
		return
	}
	redemptionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.CancelRedemption(c.Request.Context(), redemptionID, subscriberID)
	if err != nil {
		writeServiceError(c, "cancel", err)
		return
	}
	if result.Rejection != nil {
		writeRejection(c, result.Rejection, nil)
		return
	}

	response.Success(c, http.StatusOK, "", result)
}
