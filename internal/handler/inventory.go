package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/apierror"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/infra"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/middleware"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ReportMailer sends the stock report as a mail attachment. Implemented by infra.Mailer.
type ReportMailer interface {
	SendAttachment(to, subject, body, filename, contentType string, data []byte) error
}

type InventoryHandler struct {
	svc      service.InventoryService
	fabrics  service.FabricService
	mailer   ReportMailer
	reportTo string
}

// NewInventoryHandler wires the inventory endpoints. reportTo is the default
// recipient of mailed reports; mailer may be nil when SMTP is not configured.
func NewInventoryHandler(svc service.InventoryService, fabrics service.FabricService, mailer ReportMailer, reportTo string) *InventoryHandler {
	return &InventoryHandler{svc: svc, fabrics: fabrics, mailer: mailer, reportTo: reportTo}
}

// Overview godoc
// @Summary Stock overview of active products
// @Tags inventory
// @Produce json
// @Success 200 {object} dto.StockOverviewResponse
// @Router /v1/inventory/overview [get]
func (h *InventoryHandler) Overview(c *gin.Context) {
	resp, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LowStockAlerts godoc
// @Summary Products and fabrics that are out of stock or running low
// @Tags inventory
// @Produce json
// @Success 200 {object} dto.LowStockAlertsResponse
// @Router /v1/inventory/alerts/low-stock [get]
func (h *InventoryHandler) LowStockAlerts(c *gin.Context) {
	resp, err := h.svc.LowStockAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) ListProducts(c *gin.Context) {
	resp, err := h.svc.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListTransactions godoc
// @Summary Inventory transaction history, newest first
// @Tags inventory
// @Produce json
// @Param productId query string false "Product id"
// @Param type query string false "in | out | adjustment"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.InventoryTransactionListResponse
// @Router /v1/inventory/transactions [get]
func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	var filter dto.InventoryTransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStock godoc
// @Summary Apply a stock operation to a product
// @Description reason=production draws fabric for the bill of materials first.
// @Tags inventory
// @Accept json
// @Produce json
// @Param productId path string true "Product id"
// @Param body body dto.UpdateStockRequest true "Stock operation"
// @Success 200 {object} dto.UpdateStockResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.ShortageError
// @Router /v1/inventory/{productId}/stock [patch]
func (h *InventoryHandler) UpdateStock(c *gin.Context) {
	var req dto.UpdateStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStock(c.Request.Context(), middleware.Actor(c), c.Param("productId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Produce godoc
// @Summary Record a production run
// @Tags inventory
// @Accept json
// @Produce json
// @Param productId path string true "Product id"
// @Param body body dto.ProduceRequest true "Production run"
// @Success 200 {object} dto.UpdateStockResponse
// @Failure 409 {object} apierror.ShortageError
// @Router /v1/inventory/{productId}/produce [post]
func (h *InventoryHandler) Produce(c *gin.Context) {
	var req dto.ProduceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Produce(c.Request.Context(), middleware.Actor(c), c.Param("productId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary Stock report as PDF
// @Tags inventory
// @Produce application/pdf
// @Success 200 {file} file
// @Router /v1/inventory/report.pdf [get]
func (h *InventoryHandler) Report(c *gin.Context) {
	now := time.Now()
	pdf, err := h.renderReport(c, now)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, reportFilename(now)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// EmailReport godoc
// @Summary Mail the stock report PDF
// @Tags inventory
// @Accept json
// @Param body body dto.EmailReportRequest false "Recipient (defaults to ALERT_EMAIL)"
// @Success 202 {object} map[string]string
// @Failure 503 {object} apierror.APIError
// @Router /v1/inventory/report/email [post]
func (h *InventoryHandler) EmailReport(c *gin.Context) {
	var req dto.EmailReportRequest
	// Chunked bodies arrive with ContentLength -1; an empty one means no override.
	if c.Request.Body != nil && c.Request.Body != http.NoBody && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
			return
		}
		if !validateStruct(c, &req) {
			return
		}
	}
	to := req.To
	if to == "" {
		to = h.reportTo
	}
	if to == "" {
		c.JSON(http.StatusBadRequest, apierror.New("no recipient given and ALERT_EMAIL is not set"))
		return
	}
	if h.mailer == nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New("mail delivery is not configured"))
		return
	}

	now := time.Now()
	pdf, err := h.renderReport(c, now)
	if err != nil {
		respondError(c, err)
		return
	}
	subject := "Stock report " + now.Format("02 Jan 2006")
	body := fmt.Sprintf("Stock report generated %s by %s.\n", now.Format(time.RFC1123), middleware.Actor(c))
	if err := h.mailer.SendAttachment(to, subject, body, reportFilename(now), "application/pdf", pdf); err != nil {
		if errors.Is(err, infra.ErrMailerDisabled) {
			c.JSON(http.StatusServiceUnavailable, apierror.New("mail delivery is not configured"))
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, apierror.New("could not deliver the report"))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "report sent", "to": to})
}

func (h *InventoryHandler) renderReport(c *gin.Context, now time.Time) ([]byte, error) {
	ctx := c.Request.Context()
	overview, err := h.svc.Overview(ctx)
	if err != nil {
		return nil, err
	}
	fabrics, err := h.fabrics.List(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := infra.WriteStockReportPDF(&buf, overview, fabrics, now); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reportFilename(t time.Time) string {
	return "stock-report-" + t.Format("2006-01-02") + ".pdf"
}
