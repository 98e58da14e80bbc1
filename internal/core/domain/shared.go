package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

func ValidateID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// Amount is a currency-agnostic price in cents.
type Amount int64

// NewAmountFromDecimal rounds half away from zero to whole cents.
func NewAmountFromDecimal(value decimal.Decimal) Amount {
	return Amount(value.Shift(2).Round(0).IntPart())
}

func (a Amount) Add(b Amount) Amount {
	return a + b
}

func (a Amount) Multiply(b int) Amount {
	return a * Amount(b)
}

func (a Amount) IsNegative() bool {
	return a < 0
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

// String renders the amount with a $ prefix and two fraction digits, e.g. $20.00.
func (a Amount) String() string {
	d := a.Decimal()
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

type Event interface {
	GetName() string
	GetEntityName() string
}
