package dto

import "github.com/shopspring/decimal"

type CreateFabricRequest struct {
	FabricID      string           `json:"fabricId"      validate:"required,min=1,max=64"`
	Name          string           `json:"name"          validate:"required,min=2,max=120"`
	Type          string           `json:"type"          validate:"required,oneof=silk cotton linen wool synthetic velvet georgette chiffon organza net brocade banarasi kanjivaram tussar mulmul"`
	Color         string           `json:"color"         validate:"max=60"`
	CurrentStock  decimal.Decimal  `json:"currentStock"`
	LowStockAlert *decimal.Decimal `json:"lowStockAlert"`
	ReorderPoint  *decimal.Decimal `json:"reorderPoint"`
	CostPerMeter  decimal.Decimal  `json:"costPerMeter"  validate:"required"`
	SupplierName  string           `json:"supplierName"  validate:"max=120"`
}

type AdjustFabricStockRequest struct {
	Type         string           `json:"type"         validate:"required,oneof=purchase adjustment wastage return"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Reference    string           `json:"reference"    validate:"max=120"`
	Notes        string           `json:"notes"        validate:"max=500"`
	CostPerMeter *decimal.Decimal `json:"costPerMeter"`
}

type FabricTransactionFilter struct {
	Type  string `form:"type"`
	Page  int    `form:"page,default=1"`
	Limit int    `form:"limit,default=50"`
}

type FabricResponse struct {
	FabricID      string          `json:"fabricId"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Color         string          `json:"color,omitempty"`
	CurrentStock  decimal.Decimal `json:"currentStock"`
	Unit          string          `json:"unit"`
	LowStockAlert decimal.Decimal `json:"lowStockAlert"`
	ReorderPoint  decimal.Decimal `json:"reorderPoint"`
	CostPerMeter  decimal.Decimal `json:"costPerMeter"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	SupplierName  string          `json:"supplierName,omitempty"`
	Status        string          `json:"status"`
	IsActive      bool            `json:"isActive"`
}

type FabricUsageResponse struct {
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName"`
	ProductCategory string          `json:"productCategory"`
	MetersUsed      decimal.Decimal `json:"metersUsed"`
	UsedAt          string          `json:"usedAt"`
}

type FabricTransactionResponse struct {
	ID              string          `json:"id"`
	FabricID        string          `json:"fabricId"`
	Type            string          `json:"type"`
	Quantity        decimal.Decimal `json:"quantity"`
	PreviousStock   decimal.Decimal `json:"previousStock"`
	NewStock        decimal.Decimal `json:"newStock"`
	Reference       string          `json:"reference,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CostPerMeter    decimal.Decimal `json:"costPerMeter"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	PerformedBy     string          `json:"performedBy"`
	TransactionDate string          `json:"transactionDate"`
}

type FabricTransactionListResponse struct {
	Data  []FabricTransactionResponse `json:"data"`
	Total int64                       `json:"total"`
	Page  int                         `json:"page"`
	Limit int                         `json:"limit"`
}

type RebuildUsageResponse struct {
	FabricID string `json:"fabricId"`
	Entries  int    `json:"entries"`
}
