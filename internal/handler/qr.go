package handler

import (
	"net/http"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/middleware"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type QRHandler struct{ svc service.QRService }

func NewQRHandler(svc service.QRService) *QRHandler {
	return &QRHandler{svc: svc}
}

// Get godoc
// @Summary Product QR code, generated on first request
// @Tags qr
// @Produce json
// @Param productId path string true "Product id"
// @Success 200 {object} dto.QRCodeResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/{productId}/qr [get]
func (h *QRHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), middleware.Actor(c), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PNG godoc
// @Summary Product QR code as a printable PNG
// @Tags qr
// @Produce png
// @Param productId path string true "Product id"
// @Success 200 {file} binary
// @Router /v1/products/{productId}/qr.png [get]
func (h *QRHandler) PNG(c *gin.Context) {
	png, err := h.svc.PNG(c.Request.Context(), middleware.Actor(c), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+c.Param("productId")+`-qr.png"`)
	c.Data(http.StatusOK, "image/png", png)
}

func (h *QRHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("productId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QRHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateAll godoc
// @Summary Make sure every active product has a stored QR code
// @Tags qr
// @Produce json
// @Success 200 {object} dto.QRBulkResponse
// @Router /v1/qr-codes/generate [post]
func (h *QRHandler) GenerateAll(c *gin.Context) {
	resp, err := h.svc.GenerateAll(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *QRHandler) Clear(c *gin.Context) {
	resp, err := h.svc.Clear(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
