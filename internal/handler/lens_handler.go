package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lenstrack/backend/internal/middleware"
	"lenstrack/backend/internal/model"
	"lenstrack/backend/internal/service"
)

type LensHandler struct {
	lensService *service.LensService
}

type addLensRequest struct {
	Manufacturer    string `json:"manufacturer"`
	Brand           string `json:"brand"`
	WearPeriodTitle string `json:"wearPeriodTitle"`
	Status          string `json:"status"`
	OpenedDate      string `json:"openedDate"`
	Sphere          string `json:"sphere"`
	BaseCurveRadius string `json:"baseCurveRadius"`
}

type editLensRequest struct {
	Manufacturer       string `json:"manufacturer"`
	Brand              string `json:"brand"`
	WearPeriodTitle    string `json:"wearPeriodTitle"`
	UsagePeriodDays    int    `json:"usagePeriodDays"`
	DiscardDate        string `json:"discardDate"`
	Status             string `json:"status"`
	OpenedDate         string `json:"openedDate"`
	Sphere             string `json:"sphere"`
	BaseCurveRadius    string `json:"baseCurveRadius"`
	AccumulatedUsageMs int64  `json:"accumulatedUsageMs"`
	LastResumedAt      string `json:"lastResumedAt"`
}

func NewLensHandler(lensService *service.LensService) *LensHandler {
	return &LensHandler{lensService: lensService}
}

func (h *LensHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	collection, apiErr := h.lensService.List(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h *LensHandler) Add(c *gin.Context) {
	var req addLensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	lens, apiErr := h.lensService.Add(c.Request.Context(), userID, service.AddLensInput{
		Manufacturer:    req.Manufacturer,
		Brand:           req.Brand,
		WearPeriodTitle: req.WearPeriodTitle,
		Status:          model.Status(req.Status),
		OpenedDate:      req.OpenedDate,
		Sphere:          req.Sphere,
		BaseCurveRadius: req.BaseCurveRadius,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lens": lens})
}

func (h *LensHandler) Edit(c *gin.Context) {
	var req editLensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	userID := middleware.UserID(c)
	lens, apiErr := h.lensService.Edit(c.Request.Context(), userID, c.Param("id"), service.EditLensInput{
		Manufacturer:       req.Manufacturer,
		Brand:              req.Brand,
		WearPeriodTitle:    req.WearPeriodTitle,
		UsagePeriodDays:    req.UsagePeriodDays,
		DiscardDate:        req.DiscardDate,
		Status:             model.Status(req.Status),
		OpenedDate:         req.OpenedDate,
		Sphere:             req.Sphere,
		BaseCurveRadius:    req.BaseCurveRadius,
		AccumulatedUsageMs: req.AccumulatedUsageMs,
		LastResumedAt:      req.LastResumedAt,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lens": lens})
}

func (h *LensHandler) Delete(c *gin.Context) {
	userID := middleware.UserID(c)
	if apiErr := h.lensService.Delete(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LensHandler) Swap(c *gin.Context) {
	userID := middleware.UserID(c)
	result, apiErr := h.lensService.Swap(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *LensHandler) Resume(c *gin.Context) {
	userID := middleware.UserID(c)
	result, apiErr := h.lensService.Resume(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *LensHandler) TakeOff(c *gin.Context) {
	userID := middleware.UserID(c)
	lens, apiErr := h.lensService.TakeOff(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lens": lens})
}

func (h *LensHandler) Discard(c *gin.Context) {
	userID := middleware.UserID(c)
	lens, apiErr := h.lensService.Discard(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lens": lens})
}
