package quote

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every payload validation failure.
var ErrInvalid = errors.New("invalid quote")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the header, every line and the non-negative money fields.
func Validate(d Data, items []Item) error {
	if err := validatorInstance().Struct(d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	if d.Total.IsNegative() || d.DiscountPercent.IsNegative() || d.TaxRate.IsNegative() {
		return fmt.Errorf("%w: negative amount", ErrInvalid)
	}
	if d.DiscountPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount_percent above 100", ErrInvalid)
	}
	for i, it := range items {
		if err := validatorInstance().Struct(it); err != nil {
			return fmt.Errorf("%w: item %d: %s", ErrInvalid, i, describe(err))
		}
		if it.UnitPrice.IsNegative() || !it.Quantity.IsPositive() {
			return fmt.Errorf("%w: item %d: unit_price must be >= 0 and quantity > 0", ErrInvalid, i)
		}
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}
