package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOperation      = errors.New("invalid operation")
	ErrInvalidQuantity       = errors.New("quantity must be greater than zero")
	ErrInsufficientSizeStock = errors.New("insufficient size stock")
	ErrReserveExceedsStock   = errors.New("reservation exceeds stock")
	ErrProductionRequiresAdd = errors.New("production must use the add operation")
	ErrInsufficientFabric    = errors.New("insufficient fabric stock")
)

// SizeStockError describes a subtract that asked for more than a size bucket holds.
type SizeStockError struct {
	Size      string
	Available int
	Requested int
}

func (e *SizeStockError) Error() string {
	return fmt.Sprintf("not enough stock for size %s: available %d, requested %d", e.Size, e.Available, e.Requested)
}

func (e *SizeStockError) Unwrap() error { return ErrInsufficientSizeStock }

// Shortage is one fabric that cannot cover a production request.
type Shortage struct {
	FabricID   string          `json:"fabricId"`
	FabricName string          `json:"fabricName"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
	Missing    bool            `json:"missing"`
}

func (s Shortage) String() string {
	if s.Missing {
		return fmt.Sprintf("fabric %s not found", s.FabricID)
	}
	return fmt.Sprintf("%s (%s) requires %sm but has only %sm", s.FabricName, s.FabricID, s.Required, s.Available)
}

// ShortageError carries every shortage found by the validation pass.
type ShortageError struct {
	Shortages []Shortage
}

func (e *ShortageError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = s.String()
	}
	return "not enough fabric stock to produce this quantity: " + strings.Join(parts, "; ")
}

func (e *ShortageError) Unwrap() error { return ErrInsufficientFabric }
