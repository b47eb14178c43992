package discount

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNegativePoints is returned when the points balance is below zero.
	ErrNegativePoints = errors.New("points balance must not be negative")
	// ErrNegativeSubtotal is returned when the subtotal is below zero.
	ErrNegativeSubtotal = errors.New("subtotal must not be negative")
)

// InvalidItemError indicates a cart line with a non-positive quantity or a
// negative price.
type InvalidItemError struct {
	ItemID string
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("cart item %s: %s", e.ItemID, e.Reason)
}

// ValidateInput checks the numeric inputs of Compute. Callers must run it
// before invoking the engine.
func ValidateInput(items []Item, points, subtotal decimal.Decimal) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			return &InvalidItemError{ItemID: item.ID, Reason: "quantity must be greater than 0"}
		}
		if item.UnitPrice.IsNegative() {
			return &InvalidItemError{ItemID: item.ID, Reason: "unit price must not be negative"}
		}
	}
	if points.IsNegative() {
		return ErrNegativePoints
	}
	if subtotal.IsNegative() {
		return ErrNegativeSubtotal
	}
	return nil
}
