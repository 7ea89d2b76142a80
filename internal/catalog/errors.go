package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InsufficientStockError reports a decrement that would take a product's
// stock below zero. Available is the stock at the time of the check.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): %s available",
		e.ProductID, e.ProductName, e.Available.String())
}
