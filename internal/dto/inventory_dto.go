package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type UpdateStockRequest struct {
	Operation   string           `json:"operation"   validate:"required,oneof=add subtract set reserve release"`
	Quantity    int              `json:"quantity"    validate:"min=0"`
	Reason      string           `json:"reason"      validate:"omitempty,oneof=purchase sale return damaged lost adjustment initial_stock manual_adjustment production"`
	Notes       string           `json:"notes"       validate:"max=500"`
	Reference   string           `json:"reference"   validate:"max=120"`
	CostPerUnit *decimal.Decimal `json:"costPerUnit"`
	Size        string           `json:"size"        validate:"max=16"`
}

type ProduceRequest struct {
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Notes    string `json:"notes"    validate:"max=500"`
	Size     string `json:"size"     validate:"max=16"`
}

type EmailReportRequest struct {
	To string `json:"to" validate:"omitempty,email"`
}

type InventoryTransactionFilter struct {
	ProductID string `form:"productId"`
	Type      string `form:"type"`
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=50"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UpdateStockResponse struct {
	Product  ProductResponse `json:"product"`
	NewStock int             `json:"newStock"`
	Message  string          `json:"message"`
	// FabricTransactions lists the usage records written by a production run.
	FabricTransactions []FabricTransactionResponse `json:"fabricTransactions,omitempty"`
}

type StockStatusItem struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	Stock          int    `json:"stock"`
	Status         string `json:"status"`
	AvailableStock int    `json:"availableStock"`
}

type StockOverviewResponse struct {
	TotalProducts   int               `json:"totalProducts"`
	TotalStockValue decimal.Decimal   `json:"totalStockValue"`
	TotalItems      int               `json:"totalItems"`
	InStock         int               `json:"inStock"`
	LowStock        int               `json:"lowStock"`
	OutOfStock      int               `json:"outOfStock"`
	StockStatus     []StockStatusItem `json:"stockStatus"`
}

type LowStockAlertsResponse struct {
	Critical       []ProductResponse `json:"critical"`
	Warnings       []ProductResponse `json:"warnings"`
	FabricCritical []FabricResponse  `json:"fabricCritical"`
	FabricWarnings []FabricResponse  `json:"fabricWarnings"`
	TotalAlerts    int               `json:"totalAlerts"`
}

type InventoryProductResponse struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Stock         int             `json:"stock"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	LowStockAlert int             `json:"lowStockAlert"`
	ReservedStock int             `json:"reservedStock"`
	Status        string          `json:"status"`
}

type InventoryTransactionResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"productId"`
	Size            *string         `json:"size,omitempty"`
	Type            string          `json:"type"`
	Quantity        int             `json:"quantity"`
	PreviousStock   int             `json:"previousStock"`
	NewStock        int             `json:"newStock"`
	Reason          string          `json:"reason"`
	Reference       string          `json:"reference,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CostPerUnit     decimal.Decimal `json:"costPerUnit"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	PerformedBy     string          `json:"performedBy"`
	TransactionDate string          `json:"transactionDate"`
}

type InventoryTransactionListResponse struct {
	Data  []InventoryTransactionResponse `json:"data"`
	Total int64                          `json:"total"`
	Page  int                            `json:"page"`
	Limit int                            `json:"limit"`
}
