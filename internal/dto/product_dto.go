package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type FabricLineRequest struct {
	FabricID   string          `json:"fabricId"   validate:"required,max=64"`
	MetersUsed decimal.Decimal `json:"metersUsed" validate:"required"`
}

type SizeStockRequest struct {
	Size  string `json:"size"  validate:"required,max=16"`
	Stock int    `json:"stock" validate:"min=0"`
}

type CreateProductRequest struct {
	ProductID     string              `json:"productId"     validate:"required,min=1,max=64"`
	Name          string              `json:"name"          validate:"required,min=2,max=120"`
	Description   string              `json:"description"   validate:"max=2000"`
	Category      string              `json:"category"      validate:"required"`
	Color         string              `json:"color"         validate:"max=60"`
	CostPrice     decimal.Decimal     `json:"costPrice"     validate:"required"`
	SellingPrice  decimal.Decimal     `json:"sellingPrice"  validate:"required"`
	Stock         int                 `json:"stock"         validate:"min=0"`
	LowStockAlert *int                `json:"lowStockAlert" validate:"omitempty,min=0"`
	ReorderPoint  *int                `json:"reorderPoint"  validate:"omitempty,min=0"`
	Unit          string              `json:"unit"`
	SizeStock     []SizeStockRequest  `json:"sizeStock"     validate:"dive"`
	FabricUsed    []FabricLineRequest `json:"fabricUsed"    validate:"dive"`
}

// UpdateProductRequest carries the editable product details. Stock, size
// buckets and the bill of materials only change through the ledger, so the
// handler rejects bodies that mention them.
type UpdateProductRequest struct {
	Name          *string          `json:"name"          validate:"omitempty,min=2,max=120"`
	Description   *string          `json:"description"   validate:"omitempty,max=2000"`
	Category      *string          `json:"category"      validate:"omitempty,min=1"`
	Color         *string          `json:"color"         validate:"omitempty,max=60"`
	CostPrice     *decimal.Decimal `json:"costPrice"`
	SellingPrice  *decimal.Decimal `json:"sellingPrice"`
	LowStockAlert *int             `json:"lowStockAlert" validate:"omitempty,min=0"`
	ReorderPoint  *int             `json:"reorderPoint"  validate:"omitempty,min=0"`
	Unit          *string          `json:"unit"          validate:"omitempty,max=16"`
}

type AddVariantRequest struct {
	VariantProductID string `json:"variantProductId" validate:"required,max=64"`
}

type ProductFilter struct {
	Category string `form:"category"`
	Status   string `form:"status"`
	Active   string `form:"active"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SizeStockResponse struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

type FabricLineResponse struct {
	FabricID     string          `json:"fabricId"`
	FabricName   string          `json:"fabricName"`
	MetersUsed   decimal.Decimal `json:"metersUsed"`
	CostPerMeter decimal.Decimal `json:"costPerMeter"`
	TotalCost    decimal.Decimal `json:"totalCost"`
}

type ProductResponse struct {
	ProductID       string               `json:"productId"`
	Name            string               `json:"name"`
	Description     string               `json:"description,omitempty"`
	Category        string               `json:"category"`
	CostPrice       decimal.Decimal      `json:"costPrice"`
	SellingPrice    decimal.Decimal      `json:"sellingPrice"`
	Stock           int                  `json:"stock"`
	ReservedStock   int                  `json:"reservedStock"`
	AvailableStock  int                  `json:"availableStock"`
	LowStockAlert   int                  `json:"lowStockAlert"`
	ReorderPoint    int                  `json:"reorderPoint"`
	Unit            string               `json:"unit"`
	Status          string               `json:"status"`
	LastRestocked   *string              `json:"lastRestocked,omitempty"`
	RestockQuantity *int                 `json:"restockQuantity,omitempty"`
	SizeStock       []SizeStockResponse  `json:"sizeStock"`
	FabricUsed      []FabricLineResponse `json:"fabricUsed"`
	Color           string               `json:"color,omitempty"`
	ParentProductID *string              `json:"parentProductId,omitempty"`
	Variants        []VariantResponse    `json:"variants,omitempty"`
	IsActive        bool                 `json:"isActive"`
}

type VariantResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
}

type HardDeleteResponse struct {
	ProductID         string `json:"productId"`
	QRCodesDeleted    int64  `json:"qrCodesDeleted"`
	EmbeddingsDeleted int    `json:"embeddingsDeleted"`
	FilesRemoved      int    `json:"filesRemoved"`
}

type ProductListResponse struct {
	Data       []ProductResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

type ImageMatch struct {
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Similarity float64 `json:"similarity"`
}

type ImageSearchResponse struct {
	Found   bool         `json:"found"`
	Matches []ImageMatch `json:"matches"`
	Message string       `json:"message,omitempty"`
}

type EmbeddingResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"productId"`
	ImagePath  string `json:"imagePath"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model"`
}
