package service

import (
	"encoding/base64"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"
)

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func toProductResponse(p *model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ProductID:       p.ProductID,
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		CostPrice:       p.CostPrice,
		SellingPrice:    p.SellingPrice,
		Stock:           p.Stock,
		ReservedStock:   p.ReservedStock,
		AvailableStock:  p.AvailableStock(),
		LowStockAlert:   p.LowStockAlert,
		ReorderPoint:    p.ReorderPoint,
		Unit:            p.Unit,
		Status:          string(p.Status),
		RestockQuantity: p.RestockQuantity,
		SizeStock:       make([]dto.SizeStockResponse, len(p.SizeStock)),
		FabricUsed:      make([]dto.FabricLineResponse, len(p.FabricUsed)),
		Color:           p.Color,
		ParentProductID: p.ParentProductID,
		IsActive:        p.IsActive,
	}
	for _, v := range p.Variants {
		resp.Variants = append(resp.Variants, dto.VariantResponse{ProductID: v.VariantProductID, Name: v.Name, Color: v.Color})
	}
	if p.LastRestocked != nil {
		s := formatTime(*p.LastRestocked)
		resp.LastRestocked = &s
	}
	for i, s := range p.SizeStock {
		resp.SizeStock[i] = dto.SizeStockResponse{Size: s.Size, Stock: s.Stock}
	}
	for i, l := range p.FabricUsed {
		resp.FabricUsed[i] = dto.FabricLineResponse{
			FabricID:     l.FabricID,
			FabricName:   l.FabricName,
			MetersUsed:   l.MetersUsed,
			CostPerMeter: l.CostPerMeter,
			TotalCost:    l.MetersUsed.Mul(l.CostPerMeter),
		}
	}
	return resp
}

func toQRCodeResponse(q *model.QRCode, fromCache bool) dto.QRCodeResponse {
	return dto.QRCodeResponse{
		ProductID:    q.ProductID,
		ProductName:  q.ProductName,
		URL:          q.URL,
		Size:         q.Size,
		DataURL:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(q.PNG),
		GeneratedBy:  q.GeneratedBy,
		GeneratedAt:  formatTime(q.GeneratedAt),
		LastAccessed: formatTime(q.LastAccessed),
		AccessCount:  q.AccessCount,
		FromCache:    fromCache,
	}
}

func toFabricResponse(f *model.Fabric) dto.FabricResponse {
	return dto.FabricResponse{
		FabricID:      f.FabricID,
		Name:          f.Name,
		Type:          f.Type,
		Color:         f.Color,
		CurrentStock:  f.CurrentStock,
		Unit:          f.Unit,
		LowStockAlert: f.LowStockAlert,
		ReorderPoint:  f.ReorderPoint,
		CostPerMeter:  f.CostPerMeter,
		TotalValue:    f.TotalValue(),
		SupplierName:  f.SupplierName,
		Status:        string(f.Status),
		IsActive:      f.IsActive,
	}
}

func toInventoryTransactionResponse(t *model.InventoryTransaction) dto.InventoryTransactionResponse {
	return dto.InventoryTransactionResponse{
		ID:              t.ID.String(),
		ProductID:       t.ProductID,
		Size:            t.Size,
		Type:            t.Type,
		Quantity:        t.Quantity,
		PreviousStock:   t.PreviousStock,
		NewStock:        t.NewStock,
		Reason:          t.Reason,
		Reference:       t.Reference,
		Notes:           t.Notes,
		CostPerUnit:     t.CostPerUnit,
		TotalValue:      t.TotalValue,
		PerformedBy:     t.PerformedBy,
		TransactionDate: formatTime(t.TransactionDate),
	}
}

func toFabricTransactionResponse(t *model.FabricTransaction) dto.FabricTransactionResponse {
	return dto.FabricTransactionResponse{
		ID:              t.ID.String(),
		FabricID:        t.FabricID,
		Type:            t.Type,
		Quantity:        t.Quantity,
		PreviousStock:   t.PreviousStock,
		NewStock:        t.NewStock,
		Reference:       t.Reference,
		Notes:           t.Notes,
		CostPerMeter:    t.CostPerMeter,
		TotalValue:      t.TotalValue,
		PerformedBy:     t.PerformedBy,
		TransactionDate: formatTime(t.TransactionDate),
	}
}

func toFabricUsageResponse(u *model.FabricUsage) dto.FabricUsageResponse {
	return dto.FabricUsageResponse{
		ProductID:       u.ProductID,
		ProductName:     u.ProductName,
		ProductCategory: u.ProductCategory,
		MetersUsed:      u.MetersUsed,
		UsedAt:          formatTime(u.UsedAt),
	}
}
