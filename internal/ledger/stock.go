package ledger

import (
	"fmt"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"
)

// Operation is a stock operation on a product.
type Operation string

const (
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
	OpSet      Operation = "set"
	OpReserve  Operation = "reserve"
	OpRelease  Operation = "release"
)

// ParseOperation validates a client-supplied operation name.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case OpAdd, OpSubtract, OpSet, OpReserve, OpRelease:
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOperation, s)
}

// Recorded reports whether the operation writes an InventoryTransaction.
// Reservations only move reservedStock and are not part of the ledger.
func (op Operation) Recorded() bool {
	return op == OpAdd || op == OpSubtract || op == OpSet
}

// TransactionType maps the operation to the InventoryTransaction type.
func (op Operation) TransactionType() string {
	switch op {
	case OpAdd:
		return "in"
	case OpSubtract:
		return "out"
	default:
		return "adjustment"
	}
}

// StockChange is the outcome of ApplyStockOp.
type StockChange struct {
	Operation      Operation
	Quantity       int
	Size           string
	PreviousStock  int
	NewStock       int
	PreviousStatus model.Status
	NewStatus      model.Status
	// SizeCreated is true when the size bucket did not exist before the operation.
	SizeCreated bool
}

// Delta is the signed change applied to the aggregate stock.
func (c *StockChange) Delta() int { return c.NewStock - c.PreviousStock }

// StatusEnteredAlert reports a transition into low_stock or out_of_stock.
func (c *StockChange) StatusEnteredAlert() bool {
	return c.NewStatus != c.PreviousStatus && c.NewStatus.Alerting()
}

// ApplyStockOp mutates p in place. Every check runs before the first write, so
// on error p is unchanged. Size handling only applies to add, subtract and set.
func ApplyStockOp(p *model.Product, op Operation, quantity int, size string, now time.Time) (*StockChange, error) {
	if quantity < 0 || (quantity == 0 && op != OpSet) {
		return nil, ErrInvalidQuantity
	}

	change := &StockChange{
		Operation:      op,
		Quantity:       quantity,
		PreviousStock:  p.Stock,
		NewStock:       p.Stock,
		PreviousStatus: p.Status,
	}

	switch op {
	case OpReserve:
		if p.ReservedStock+quantity > p.Stock {
			return nil, fmt.Errorf("%w: stock %d, reserved %d, requested %d", ErrReserveExceedsStock, p.Stock, p.ReservedStock, quantity)
		}
		p.ReservedStock += quantity
		change.NewStatus = p.Status
		return change, nil
	case OpRelease:
		p.ReservedStock = max(0, p.ReservedStock-quantity)
		change.NewStatus = p.Status
		return change, nil
	case OpAdd:
		change.NewStock = p.Stock + quantity
	case OpSubtract:
		change.NewStock = max(0, p.Stock-quantity)
	case OpSet:
		change.NewStock = quantity
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperation, op)
	}

	if size != "" {
		change.Size = size
		bucket := p.FindSize(size)
		current := 0
		if bucket != nil {
			current = bucket.Stock
		}
		if op == OpSubtract && current < quantity {
			return nil, &SizeStockError{Size: size, Available: current, Requested: quantity}
		}
		if bucket == nil {
			p.SizeStock = append(p.SizeStock, model.SizeStock{
				ProductID: p.ProductID,
				Size:      size,
				Position:  len(p.SizeStock),
			})
			bucket = &p.SizeStock[len(p.SizeStock)-1]
			change.SizeCreated = true
		}
		switch op {
		case OpAdd:
			bucket.Stock = current + quantity
		case OpSubtract:
			bucket.Stock = current - quantity
		case OpSet:
			bucket.Stock = quantity
		}
	}

	p.Stock = change.NewStock
	p.ReservedStock = min(p.ReservedStock, p.Stock)
	if op == OpAdd {
		restocked := now
		qty := quantity
		p.LastRestocked = &restocked
		p.RestockQuantity = &qty
	}
	p.Status = ProductStatus(p)
	change.NewStatus = p.Status
	return change, nil
}
