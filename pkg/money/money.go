package money

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places every monetary value is rounded to.
// Every arithmetic operation rounds its result immediately rather than
// deferring rounding to the final total, so accumulation order is stable.
const Scale = 2

// Amount is a fixed-point monetary value. The zero value is usable and
// renders as "0.00".
type Amount struct {
	d decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Amount {
	return Amount{}
}

// FromString parses a decimal string such as "50.00" or "-3.5".
func FromString(value string) (Amount, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Amount{}, fmt.Errorf("money: empty amount")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Amount{}, fmt.Errorf("money: parsing %q: %w", value, err)
	}
	return Amount{d: d.Round(Scale)}, nil
}

// MustFromString parses value and panics on malformed input. Reserved for
// constants and tests.
func MustFromString(value string) Amount {
	amount, err := FromString(value)
	if err != nil {
		panic(err)
	}
	return amount
}

// FromCents converts an integer cent count to an Amount.
func FromCents(cents int64) Amount {
	return Amount{d: decimal.New(cents, -Scale)}
}

// FromInt converts a whole unit count (e.g. a quantity) to an Amount.
func FromInt(value int64) Amount {
	return Amount{d: decimal.NewFromInt(value).Round(Scale)}
}

// Add returns a+b rounded to Scale.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d).Round(Scale)}
}

// Sub returns a-b rounded to Scale.
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d).Round(Scale)}
}

// Mul returns a*b rounded to Scale.
func (a Amount) Mul(b Amount) Amount {
	return Amount{d: a.d.Mul(b.d).Round(Scale)}
}

// MulInt returns a*n rounded to Scale.
func (a Amount) MulInt(n int64) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(n)).Round(Scale)}
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return Amount{d: a.d.Neg()}
}

// Cmp compares a and b: -1 if a<b, 0 if equal, +1 if a>b.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// IsZero reports whether the amount equals zero.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// Cents returns the amount as an integer cent count.
func (a Amount) Cents() int64 {
	return a.d.Shift(Scale).IntPart()
}

// String renders the amount with exactly Scale decimal places.
func (a Amount) String() string {
	return a.d.StringFixed(Scale)
}

// MarshalJSON renders the amount as a JSON string, e.g. "12.30".
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts both "12.30" and bare 12.3.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parsed, err := FromString(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer so amounts persist as numeric columns.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Zero()
		return nil
	case string:
		parsed, err := FromString(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case []byte:
		parsed, err := FromString(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case int64:
		*a = FromInt(v)
		return nil
	case float64:
		*a = Amount{d: decimal.NewFromFloat(v).Round(Scale)}
		return nil
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
}

// Sum adds all amounts, rounding after each addition.
func Sum(amounts ...Amount) Amount {
	total := Zero()
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}
