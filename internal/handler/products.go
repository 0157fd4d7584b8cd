package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/apierror"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/middleware"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxImageBytes = 10 << 20

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

type ProductsHandler struct {
	svc       service.ProductService
	uploadDir string
}

func NewProductsHandler(svc service.ProductService, uploadDir string) *ProductsHandler {
	return &ProductsHandler{svc: svc, uploadDir: uploadDir}
}

// Create godoc
// @Summary Create a product with its size buckets and fabric bill of materials
// @Tags products
// @Accept json
// @Produce json
// @Param body body dto.CreateProductRequest true "Product"
// @Success 201 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError "unknown fabric"
// @Failure 409 {object} apierror.APIError
// @Router /v1/products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
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

func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Deactivate(c *gin.Context) {
	if err := h.svc.Deactivate(c.Request.Context(), c.Param("productId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ledgerFields are product columns only stock movements may change.
var ledgerFields = []string{"stock", "reservedStock", "sizeStock", "fabricUsed", "status", "productId", "isActive", "discontinued"}

// Update godoc
// @Summary Edit product details, prices and thresholds
// @Description Stock, size buckets and the fabric bill of materials are rejected; they change only through stock movements.
// @Tags products
// @Accept json
// @Produce json
// @Param productId path string true "Product id"
// @Param body body dto.UpdateProductRequest true "Fields to change"
// @Success 200 {object} dto.ProductResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/{productId} [put]
func (h *ProductsHandler) Update(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("request body could not be read"))
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return
	}
	for _, name := range ledgerFields {
		if _, ok := fields[name]; ok {
			c.JSON(http.StatusBadRequest, apierror.New(name+" cannot be edited; use a stock movement"))
			return
		}
	}

	var req dto.UpdateProductRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return
	}
	if !validateStruct(c, &req) {
		return
	}

	resp, err := h.svc.Update(c.Request.Context(), c.Param("productId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HardDelete godoc
// @Summary Permanently remove a product with its QR code, embeddings and image files
// @Tags products
// @Produce json
// @Param productId path string true "Product id"
// @Success 200 {object} dto.HardDeleteResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/{productId}/hard [delete]
func (h *ProductsHandler) HardDelete(c *gin.Context) {
	resp, err := h.svc.HardDelete(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddVariant godoc
// @Summary Link another product as a variant of this one
// @Tags products
// @Accept json
// @Produce json
// @Param productId path string true "Parent product id"
// @Param body body dto.AddVariantRequest true "Variant"
// @Success 201 {object} dto.ProductResponse
// @Failure 409 {object} apierror.APIError "already a variant"
// @Router /v1/products/{productId}/variants [post]
func (h *ProductsHandler) AddVariant(c *gin.Context) {
	var req dto.AddVariantRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddVariant(c.Request.Context(), c.Param("productId"), req.VariantProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductsHandler) RemoveVariant(c *gin.Context) {
	resp, err := h.svc.RemoveVariant(c.Request.Context(), c.Param("productId"), c.Param("variantId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type discontinueRequest struct {
	Discontinued *bool `json:"discontinued" validate:"required"`
}

// Discontinue godoc
// @Summary Mark a product discontinued, or clear the flag
// @Tags products
// @Accept json
// @Produce json
// @Param productId path string true "Product id"
// @Success 200 {object} dto.ProductResponse
// @Router /v1/products/{productId}/discontinue [patch]
func (h *ProductsHandler) Discontinue(c *gin.Context) {
	var req discontinueRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetDiscontinued(c.Request.Context(), c.Param("productId"), *req.Discontinued)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// IndexImage godoc
// @Summary Store a product image and its embedding
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Param productId path string true "Product id"
// @Param image formData file true "jpg, png or webp"
// @Success 201 {object} dto.EmbeddingResponse
// @Failure 502 {object} apierror.APIError
// @Router /v1/products/{productId}/embeddings [post]
func (h *ProductsHandler) IndexImage(c *gin.Context) {
	filename, image, ok := readImage(c)
	if !ok {
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		respondError(c, fmt.Errorf("create upload dir: %w", err))
		return
	}
	path := filepath.Join(h.uploadDir, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	if err := os.WriteFile(path, image, 0o644); err != nil {
		respondError(c, fmt.Errorf("store image: %w", err))
		return
	}

	resp, err := h.svc.IndexImage(c.Request.Context(), c.Param("productId"), path, filename, image)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", path).Msg("orphaned upload not removed")
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SearchByImage godoc
// @Summary Find products that look like the uploaded image
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "jpg, png or webp"
// @Success 200 {object} dto.ImageSearchResponse
// @Failure 502 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/products/search-by-image [post]
func (h *ProductsHandler) SearchByImage(c *gin.Context) {
	filename, image, ok := readImage(c)
	if !ok {
		return
	}
	resp, err := h.svc.SearchByImage(c.Request.Context(), filename, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// readImage pulls the "image" form file into memory. It writes the error
// response itself and returns false when the upload is unusable.
func readImage(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("image file is required"))
		return "", nil, false
	}
	name := filepath.Base(fh.Filename)
	if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
		c.JSON(http.StatusBadRequest, apierror.New("image must be jpg, png or webp"))
		return "", nil, false
	}
	if fh.Size > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("image exceeds 10MB"))
		return "", nil, false
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("image could not be read"))
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil || len(data) == 0 || len(data) > maxImageBytes {
		c.JSON(http.StatusBadRequest, apierror.New("image could not be read"))
		return "", nil, false
	}
	return name, data, true
}
