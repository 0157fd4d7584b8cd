package model

// Status is the derived stock level of a product or fabric.
type Status string

const (
	StatusInStock      Status = "in_stock"
	StatusLowStock     Status = "low_stock"
	StatusOutOfStock   Status = "out_of_stock"
	StatusDiscontinued Status = "discontinued"
)

// Alerting reports whether the status should raise a low-stock alert.
func (s Status) Alerting() bool {
	return s == StatusLowStock || s == StatusOutOfStock
}
