// Package money represents amounts as integer minor units (cents).
//
// All arithmetic inside the engine happens on Cents. Decimal strings only
// appear at the edges: Parse turns request input into Cents, and String
// formats Cents for responses.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places in a currency amount.
const Scale = 2

// MaxAmount bounds the magnitude of any single amount or share
// (100,000,000,000.00). Sums of bounded values are still checked with Add.
const MaxAmount Cents = 10_000_000_000_000

var (
	ErrMalformed   = errors.New("not a decimal number")
	ErrTooPrecise  = errors.New("more than 2 decimal places")
	ErrOutOfRange  = errors.New("amount out of range")
	ErrNotPositive = errors.New("must be greater than zero")
	ErrNegative    = errors.New("must not be negative")
	ErrOverflow    = errors.New("sum out of range")
)

// Cents is an amount in minor units. It may be negative when used as a balance.
type Cents int64

// Parse converts a decimal string such as "12.5" or "100.00" into Cents.
// The value must be representable exactly at 2 decimal places.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return FromDecimal(d)
}

// FromDecimal converts an exact decimal into Cents. The magnitude must not
// exceed MaxAmount.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	shifted := d.Shift(Scale)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrTooPrecise, d.String())
	}
	bi := shifted.BigInt()
	if !bi.IsInt64() || !Cents(bi.Int64()).InRange() {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	return Cents(bi.Int64()), nil
}

// InRange reports whether |c| <= MaxAmount.
func (c Cents) InRange() bool {
	return c >= -MaxAmount && c <= MaxAmount
}

// Add returns a+b, or ErrOverflow if the result does not fit in an int64.
func Add(a, b Cents) (Cents, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return sum, nil
}

// ParsePositive parses s and requires the result to be greater than zero.
func ParsePositive(s string) (Cents, error) {
	c, err := Parse(s)
	if err != nil {
		return 0, err
	}
	if c <= 0 {
		return 0, ErrNotPositive
	}
	return c, nil
}

// Decimal returns c as a decimal with 2 decimal places.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -Scale)
}

// String formats c with exactly 2 decimal places, e.g. "33.34" or "-0.05".
func (c Cents) String() string {
	return c.Decimal().StringFixed(Scale)
}

// Abs returns the absolute value of c.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// Sum adds up a set of amounts.
func Sum[M ~map[K]Cents, K comparable](m M) Cents {
	var total Cents
	for _, v := range m {
		total += v
	}
	return total
}
