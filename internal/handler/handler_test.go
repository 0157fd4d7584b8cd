package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/infra"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/middleware"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// ── Service fakes ────────────────────────────────────────────────────────────
// Embedding the interface leaves unused methods nil; calling one panics.

type fakeInventory struct {
	service.InventoryService
	updateStock func(actor, productID string, req dto.UpdateStockRequest) (*dto.UpdateStockResponse, error)
	overview    *dto.StockOverviewResponse
}

func (f *fakeInventory) UpdateStock(_ context.Context, actor, productID string, req dto.UpdateStockRequest) (*dto.UpdateStockResponse, error) {
	return f.updateStock(actor, productID, req)
}

func (f *fakeInventory) Produce(ctx context.Context, actor, productID string, req dto.ProduceRequest) (*dto.UpdateStockResponse, error) {
	return f.updateStock(actor, productID, dto.UpdateStockRequest{Operation: "add", Quantity: req.Quantity, Reason: "production"})
}

func (f *fakeInventory) Overview(context.Context) (*dto.StockOverviewResponse, error) {
	return f.overview, nil
}

type fakeFabrics struct {
	service.FabricService
	fabrics []dto.FabricResponse
}

func (f *fakeFabrics) List(context.Context) ([]dto.FabricResponse, error) { return f.fabrics, nil }

func (f *fakeFabrics) AdjustStock(_ context.Context, _, fabricID string, req dto.AdjustFabricStockRequest) (*dto.FabricResponse, error) {
	if fabricID != "F1" {
		return nil, service.ErrFabricNotFound
	}
	if req.Type == "wastage" {
		return nil, fmt.Errorf("%w: wastage of 50m exceeds 10m on hand", ledger.ErrInsufficientFabric)
	}
	return &dto.FabricResponse{FabricID: fabricID, Status: "in_stock"}, nil
}

func (f *fakeFabrics) SetDiscontinued(_ context.Context, fabricID string, discontinued bool) (*dto.FabricResponse, error) {
	if fabricID != "F1" {
		return nil, service.ErrFabricNotFound
	}
	status := "in_stock"
	if discontinued {
		status = "discontinued"
	}
	return &dto.FabricResponse{FabricID: fabricID, Status: status}, nil
}

func (f *fakeFabrics) Deactivate(_ context.Context, fabricID string) error {
	if fabricID != "F1" {
		return service.ErrFabricNotFound
	}
	return nil
}

type fakeProducts struct {
	service.ProductService
	indexErr  error
	searchErr error
	indexed   []string
	updated   []dto.UpdateProductRequest
}

func (f *fakeProducts) Update(_ context.Context, productID string, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if productID != "P1" {
		return nil, service.ErrProductNotFound
	}
	f.updated = append(f.updated, req)
	return &dto.ProductResponse{ProductID: productID, Name: *req.Name}, nil
}

func (f *fakeProducts) HardDelete(_ context.Context, productID string) (*dto.HardDeleteResponse, error) {
	if productID != "P1" {
		return nil, service.ErrProductNotFound
	}
	return &dto.HardDeleteResponse{ProductID: productID, QRCodesDeleted: 1, EmbeddingsDeleted: 2, FilesRemoved: 2}, nil
}

func (f *fakeProducts) AddVariant(_ context.Context, parentID, variantID string) (*dto.ProductResponse, error) {
	if variantID == "P2" {
		return nil, fmt.Errorf("%w of P3", service.ErrVariantExists)
	}
	return &dto.ProductResponse{ProductID: parentID, Variants: []dto.VariantResponse{{ProductID: variantID}}}, nil
}

func (f *fakeProducts) RemoveVariant(_ context.Context, parentID, variantID string) (*dto.ProductResponse, error) {
	if variantID != "P2" {
		return nil, service.ErrVariantNotFound
	}
	return &dto.ProductResponse{ProductID: parentID}, nil
}

type fakeQR struct {
	service.QRService
}

func (fakeQR) PNG(_ context.Context, _, productID string) ([]byte, error) {
	if productID != "P1" {
		return nil, service.ErrProductNotFound
	}
	return []byte("\x89PNG"), nil
}

func (fakeQR) Delete(_ context.Context, productID string) error {
	if productID != "P1" {
		return service.ErrQRCodeNotFound
	}
	return nil
}

func (f *fakeProducts) IndexImage(_ context.Context, productID, imagePath, _ string, image []byte) (*dto.EmbeddingResponse, error) {
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	f.indexed = append(f.indexed, imagePath)
	return &dto.EmbeddingResponse{ProductID: productID, ImagePath: imagePath, Dimensions: len(image)}, nil
}

func (f *fakeProducts) SearchByImage(context.Context, string, []byte) (*dto.ImageSearchResponse, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &dto.ImageSearchResponse{Found: true, Matches: []dto.ImageMatch{{ProductID: "P1", Similarity: 0.99}}}, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func withActor(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &middleware.JWTClaims{Username: name, Role: "owner"})
		c.Next()
	}
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doUpload(r http.Handler, path, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("image", filename)
	_, _ = fw.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type sentReport struct {
	to, subject, filename, contentType string
	data                               []byte
}

type fakeMailer struct {
	sent []sentReport
	err  error
}

func (m *fakeMailer) SendAttachment(to, subject, _, filename, contentType string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentReport{to: to, subject: subject, filename: filename, contentType: contentType, data: data})
	return nil
}

func inventoryRouter(inv *fakeInventory) *gin.Engine {
	return inventoryRouterWithMailer(inv, nil, "")
}

func inventoryRouterWithMailer(inv *fakeInventory, mailer ReportMailer, reportTo string) *gin.Engine {
	h := NewInventoryHandler(inv, &fakeFabrics{}, mailer, reportTo)
	r := gin.New()
	r.Use(withActor("meera"))
	r.PATCH("/v1/inventory/:productId/stock", h.UpdateStock)
	r.POST("/v1/inventory/:productId/produce", h.Produce)
	r.GET("/v1/inventory/report.pdf", h.Report)
	r.POST("/v1/inventory/report/email", h.EmailReport)
	return r
}

// ── Inventory ────────────────────────────────────────────────────────────────

func TestUpdateStock_PassesActorAndBody(t *testing.T) {
	var gotActor, gotID string
	inv := &fakeInventory{updateStock: func(actor, id string, req dto.UpdateStockRequest) (*dto.UpdateStockResponse, error) {
		gotActor, gotID = actor, id
		return &dto.UpdateStockResponse{NewStock: 12, Message: "stock updated"}, nil
	}}

	w := doJSON(inventoryRouter(inv), http.MethodPatch, "/v1/inventory/P1/stock", map[string]any{"operation": "add", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "meera", gotActor)
	assert.Equal(t, "P1", gotID)

	var resp dto.UpdateStockResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.NewStock)
}

func TestUpdateStock_ValidationError(t *testing.T) {
	inv := &fakeInventory{}
	w := doJSON(inventoryRouter(inv), http.MethodPatch, "/v1/inventory/P1/stock", map[string]any{"operation": "multiply", "quantity": 2})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"Operation":"oneof"`)
}

func TestProduce_ShortageBody(t *testing.T) {
	inv := &fakeInventory{updateStock: func(string, string, dto.UpdateStockRequest) (*dto.UpdateStockResponse, error) {
		return nil, &ledger.ShortageError{Shortages: []ledger.Shortage{{
			FabricID: "F1", FabricName: "Silk", Required: decimal.NewFromInt(6), Available: decimal.NewFromInt(4),
		}}}
	}}

	w := doJSON(inventoryRouter(inv), http.MethodPost, "/v1/inventory/P1/produce", map[string]any{"quantity": 3})
	require.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Detail    string            `json:"detail"`
		Shortages []ledger.Shortage `json:"shortages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Shortages, 1)
	assert.Equal(t, "F1", body.Shortages[0].FabricID)
	assert.True(t, decimal.NewFromInt(4).Equal(body.Shortages[0].Available))
}

func TestReport_ServesPDF(t *testing.T) {
	inv := &fakeInventory{overview: &dto.StockOverviewResponse{TotalProducts: 1, StockStatus: []dto.StockStatusItem{{ProductID: "P1", Name: "Kurta", Stock: 3, Status: "low_stock"}}}}
	w := doJSON(inventoryRouter(inv), http.MethodGet, "/v1/inventory/report.pdf", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestEmailReport(t *testing.T) {
	overview := &dto.StockOverviewResponse{TotalProducts: 1}

	t.Run("defaults to the alert address", func(t *testing.T) {
		m := &fakeMailer{}
		w := doJSON(inventoryRouterWithMailer(&fakeInventory{overview: overview}, m, "owner@shop.test"), http.MethodPost, "/v1/inventory/report/email", nil)
		require.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, m.sent, 1)
		assert.Equal(t, "owner@shop.test", m.sent[0].to)
		assert.Equal(t, "application/pdf", m.sent[0].contentType)
		assert.True(t, strings.HasSuffix(m.sent[0].filename, ".pdf"))
		assert.True(t, bytes.HasPrefix(m.sent[0].data, []byte("%PDF")))
	})

	t.Run("explicit recipient", func(t *testing.T) {
		m := &fakeMailer{}
		w := doJSON(inventoryRouterWithMailer(&fakeInventory{overview: overview}, m, "owner@shop.test"), http.MethodPost, "/v1/inventory/report/email", map[string]any{"to": "accounts@shop.test"})
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "accounts@shop.test", m.sent[0].to)
	})

	t.Run("invalid recipient", func(t *testing.T) {
		w := doJSON(inventoryRouterWithMailer(&fakeInventory{overview: overview}, &fakeMailer{}, ""), http.MethodPost, "/v1/inventory/report/email", map[string]any{"to": "not-an-address"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("no recipient", func(t *testing.T) {
		w := doJSON(inventoryRouterWithMailer(&fakeInventory{overview: overview}, &fakeMailer{}, ""), http.MethodPost, "/v1/inventory/report/email", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("mail not configured", func(t *testing.T) {
		w := doJSON(inventoryRouterWithMailer(&fakeInventory{overview: overview}, nil, "owner@shop.test"), http.MethodPost, "/v1/inventory/report/email", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		m := &fakeMailer{err: infra.ErrMailerDisabled}
		w = doJSON(inventoryRouterWithMailer(&fakeInventory{overview: overview}, m, "owner@shop.test"), http.MethodPost, "/v1/inventory/report/email", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("chunked body is bound", func(t *testing.T) {
		m := &fakeMailer{}
		r := inventoryRouterWithMailer(&fakeInventory{overview: overview}, m, "owner@shop.test")
		req := httptest.NewRequest(http.MethodPost, "/v1/inventory/report/email", io.NopCloser(strings.NewReader(`{"to":"accounts@shop.test"}`)))
		req.Header.Set("Content-Type", "application/json")
		require.Equal(t, int64(-1), req.ContentLength)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, m.sent, 1)
		assert.Equal(t, "accounts@shop.test", m.sent[0].to)
	})

	t.Run("chunked invalid recipient", func(t *testing.T) {
		r := inventoryRouterWithMailer(&fakeInventory{overview: overview}, &fakeMailer{}, "owner@shop.test")
		req := httptest.NewRequest(http.MethodPost, "/v1/inventory/report/email", io.NopCloser(strings.NewReader(`{"to":"not-an-address"}`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("empty chunked body uses the default", func(t *testing.T) {
		m := &fakeMailer{}
		r := inventoryRouterWithMailer(&fakeInventory{overview: overview}, m, "owner@shop.test")
		req := httptest.NewRequest(http.MethodPost, "/v1/inventory/report/email", io.NopCloser(strings.NewReader("")))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "owner@shop.test", m.sent[0].to)
	})

	t.Run("smtp failure", func(t *testing.T) {
		m := &fakeMailer{err: errors.New("dial tcp: connection refused")}
		w := doJSON(inventoryRouterWithMailer(&fakeInventory{overview: overview}, m, "owner@shop.test"), http.MethodPost, "/v1/inventory/report/email", nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

// ── Fabrics ──────────────────────────────────────────────────────────────────

func TestFabricAdjustStock_Statuses(t *testing.T) {
	h := NewFabricsHandler(&fakeFabrics{})
	r := gin.New()
	r.POST("/v1/fabrics/:fabricId/stock", h.AdjustStock)

	w := doJSON(r, http.MethodPost, "/v1/fabrics/F1/stock", map[string]any{"type": "purchase", "quantity": "12.5"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/fabrics/F1/stock", map[string]any{"type": "wastage", "quantity": "50"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/fabrics/F9/stock", map[string]any{"type": "purchase", "quantity": "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/fabrics/F1/stock", map[string]any{"type": "usage", "quantity": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "usage is only written by production")
}

func TestFabricDiscontinueAndDeactivate(t *testing.T) {
	h := NewFabricsHandler(&fakeFabrics{})
	r := gin.New()
	r.PATCH("/v1/fabrics/:fabricId/discontinue", h.Discontinue)
	r.DELETE("/v1/fabrics/:fabricId", h.Deactivate)

	w := doJSON(r, http.MethodPatch, "/v1/fabrics/F1/discontinue", map[string]any{"discontinued": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"discontinued"`)

	w = doJSON(r, http.MethodPatch, "/v1/fabrics/F1/discontinue", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	assert.Equal(t, http.StatusNoContent, doJSON(r, http.MethodDelete, "/v1/fabrics/F1", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodDelete, "/v1/fabrics/F9", nil).Code)
}

// ── Products ─────────────────────────────────────────────────────────────────

func productsRouter(svc *fakeProducts, dir string) *gin.Engine {
	h := NewProductsHandler(svc, dir)
	r := gin.New()
	r.POST("/v1/products/:productId/embeddings", h.IndexImage)
	r.POST("/v1/products/search-by-image", h.SearchByImage)
	r.PUT("/v1/products/:productId", h.Update)
	r.DELETE("/v1/products/:productId/hard", h.HardDelete)
	r.POST("/v1/products/:productId/variants", h.AddVariant)
	r.DELETE("/v1/products/:productId/variants/:variantId", h.RemoveVariant)
	return r
}

func TestProductUpdate_RejectsLedgerFields(t *testing.T) {
	svc := &fakeProducts{}
	r := productsRouter(svc, t.TempDir())

	for _, field := range []string{"stock", "sizeStock", "fabricUsed", "reservedStock"} {
		w := doJSON(r, http.MethodPut, "/v1/products/P1", map[string]any{"name": "Kurta", field: 5})
		assert.Equal(t, http.StatusBadRequest, w.Code, field)
		assert.Contains(t, w.Body.String(), field)
	}
	w := doJSON(r, http.MethodPut, "/v1/products/P1", map[string]any{"name": "Kurta", "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown fields are rejected")
	assert.Empty(t, svc.updated)

	w = doJSON(r, http.MethodPut, "/v1/products/P1", map[string]any{"name": "K"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodPut, "/v1/products/P1", map[string]any{"name": "Silk Kurta", "sellingPrice": "1999.50"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.updated, 1)
	assert.True(t, decimal.RequireFromString("1999.5").Equal(*svc.updated[0].SellingPrice))

	w = doJSON(r, http.MethodPut, "/v1/products/P9", map[string]any{"name": "Silk Kurta"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductHardDelete(t *testing.T) {
	r := productsRouter(&fakeProducts{}, t.TempDir())

	w := doJSON(r, http.MethodDelete, "/v1/products/P1/hard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.HardDeleteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.QRCodesDeleted)
	assert.Equal(t, 2, resp.FilesRemoved)

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodDelete, "/v1/products/P9/hard", nil).Code)
}

func TestProductVariantRoutes(t *testing.T) {
	r := productsRouter(&fakeProducts{}, t.TempDir())

	w := doJSON(r, http.MethodPost, "/v1/products/P1/variants", map[string]any{"variantProductId": "P4"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"productId":"P4"`)

	w = doJSON(r, http.MethodPost, "/v1/products/P1/variants", map[string]any{"variantProductId": "P2"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodPost, "/v1/products/P1/variants", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodDelete, "/v1/products/P1/variants/P2", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodDelete, "/v1/products/P1/variants/P4", nil).Code)
}

func TestQRRoutes(t *testing.T) {
	h := NewQRHandler(fakeQR{})
	r := gin.New()
	r.Use(withActor("meera"))
	r.GET("/v1/products/:productId/qr.png", h.PNG)
	r.DELETE("/v1/products/:productId/qr", h.Delete)

	w := doJSON(r, http.MethodGet, "/v1/products/P1/qr.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "P1-qr.png")

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/v1/products/P9/qr.png", nil).Code)
	assert.Equal(t, http.StatusNoContent, doJSON(r, http.MethodDelete, "/v1/products/P1/qr", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodDelete, "/v1/products/P9/qr", nil).Code)
}

func TestIndexImage_StoresUpload(t *testing.T) {
	dir := t.TempDir()
	svc := &fakeProducts{}

	w := doUpload(productsRouter(svc, dir), "/v1/products/P1/embeddings", "front.JPG", []byte("jpeg-bytes"))
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, svc.indexed, 1)
	assert.FileExists(t, svc.indexed[0])
	assert.Equal(t, ".jpg", svc.indexed[0][len(svc.indexed[0])-4:])
}

func TestIndexImage_FailureRemovesUpload(t *testing.T) {
	dir := t.TempDir()
	svc := &fakeProducts{indexErr: fmt.Errorf("%w: timeout", service.ErrEmbeddingFailed)}

	w := doUpload(productsRouter(svc, dir), "/v1/products/P1/embeddings", "front.png", []byte("png-bytes"))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIndexImage_RejectsBadUploads(t *testing.T) {
	r := productsRouter(&fakeProducts{}, t.TempDir())

	assert.Equal(t, http.StatusBadRequest, doUpload(r, "/v1/products/P1/embeddings", "notes.txt", []byte("x")).Code)
	assert.Equal(t, http.StatusBadRequest, doUpload(r, "/v1/products/P1/embeddings", "empty.png", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/v1/products/P1/embeddings", nil).Code)
}

func TestSearchByImage(t *testing.T) {
	w := doUpload(productsRouter(&fakeProducts{}, t.TempDir()), "/v1/products/search-by-image", "q.webp", []byte("webp"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"found":true`)

	svc := &fakeProducts{searchErr: fmt.Errorf("%w: %w", service.ErrEmbeddingFailed, infra.ErrCircuitOpen)}
	w = doUpload(productsRouter(svc, t.TempDir()), "/v1/products/search-by-image", "q.webp", []byte("webp"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// ── Error mapping ────────────────────────────────────────────────────────────

func TestRespondError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrProductNotFound, http.StatusNotFound},
		{fmt.Errorf("fabric F9: %w", service.ErrFabricNotFound), http.StatusNotFound},
		{service.ErrProductExists, http.StatusConflict},
		{fmt.Errorf("%w of P1", service.ErrVariantExists), http.StatusConflict},
		{service.ErrVariantNotFound, http.StatusNotFound},
		{service.ErrQRCodeNotFound, http.StatusNotFound},
		{&ledger.SizeStockError{Size: "M", Available: 1, Requested: 3}, http.StatusConflict},
		{ledger.ErrReserveExceedsStock, http.StatusBadRequest},
		{ledger.ErrProductionRequiresAdd, http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("%w: %w", service.ErrAuditWrite, errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "disk full")
				assert.NotContains(t, w.Body.String(), "boom")
			}
		})
	}
}
