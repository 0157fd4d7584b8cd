package handler

import (
	"net/http"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/apierror"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/middleware"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type FabricsHandler struct{ svc service.FabricService }

func NewFabricsHandler(svc service.FabricService) *FabricsHandler {
	return &FabricsHandler{svc: svc}
}

// Create godoc
// @Summary Register a fabric
// @Tags fabrics
// @Accept json
// @Produce json
// @Param body body dto.CreateFabricRequest true "Fabric"
// @Success 201 {object} dto.FabricResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/fabrics [post]
func (h *FabricsHandler) Create(c *gin.Context) {
	var req dto.CreateFabricRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *FabricsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FabricsHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("fabricId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdjustStock godoc
// @Summary Restock, return, write off or correct fabric meters
// @Tags fabrics
// @Accept json
// @Produce json
// @Param fabricId path string true "Fabric id"
// @Param body body dto.AdjustFabricStockRequest true "Movement"
// @Success 200 {object} dto.FabricResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/fabrics/{fabricId}/stock [post]
func (h *FabricsHandler) AdjustStock(c *gin.Context) {
	var req dto.AdjustFabricStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), middleware.Actor(c), c.Param("fabricId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Discontinue godoc
// @Summary Mark a fabric discontinued, or clear the flag
// @Tags fabrics
// @Accept json
// @Produce json
// @Param fabricId path string true "Fabric id"
// @Success 200 {object} dto.FabricResponse
// @Router /v1/fabrics/{fabricId}/discontinue [patch]
func (h *FabricsHandler) Discontinue(c *gin.Context) {
	var req discontinueRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetDiscontinued(c.Request.Context(), c.Param("fabricId"), *req.Discontinued)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FabricsHandler) Deactivate(c *gin.Context) {
	if err := h.svc.Deactivate(c.Request.Context(), c.Param("fabricId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FabricsHandler) ListTransactions(c *gin.Context) {
	var filter dto.FabricTransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListTransactions(c.Request.Context(), c.Param("fabricId"), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FabricsHandler) ListUsage(c *gin.Context) {
	resp, err := h.svc.ListUsage(c.Request.Context(), c.Param("fabricId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RebuildUsage godoc
// @Summary Regenerate the usage view of a fabric from its usage transactions
// @Tags fabrics
// @Produce json
// @Param fabricId path string true "Fabric id"
// @Success 200 {object} dto.RebuildUsageResponse
// @Router /v1/fabrics/{fabricId}/usage/rebuild [post]
func (h *FabricsHandler) RebuildUsage(c *gin.Context) {
	resp, err := h.svc.RebuildUsage(c.Request.Context(), c.Param("fabricId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
