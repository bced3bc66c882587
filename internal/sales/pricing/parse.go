package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseAmount converts free-form numeric input to a decimal. Blank or malformed
// input yields zero; thousands separators and surrounding spaces are ignored.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseAmountOr is ParseAmount with a caller supplied value for blank input.
func ParseAmountOr(s string, def decimal.Decimal) decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return ParseAmount(s)
}

// ParseDate reads an ISO date (YYYY-MM-DD). Blank or malformed input yields nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return &t
}

// Amount is a decimal decoded leniently from JSON numbers or strings. Malformed
// input decodes to zero; blank or null input leaves the amount unset so callers
// can apply their own default with Or.
type Amount struct {
	d   decimal.Decimal
	set bool
}

// NewAmount parses s the way ParseAmount does.
func NewAmount(s string) Amount {
	if strings.TrimSpace(s) == "" {
		return Amount{}
	}
	return Amount{d: ParseAmount(s), set: true}
}

// AmountOf wraps an exact decimal.
func AmountOf(d decimal.Decimal) Amount { return Amount{d: d, set: true} }

// Dec returns the parsed value, zero when unset.
func (a Amount) Dec() decimal.Decimal { return a.d }

// Or returns def when the amount was blank.
func (a Amount) Or(def decimal.Decimal) decimal.Decimal {
	if !a.set {
		return def
	}
	return a.d
}

// IsSet reports whether a non-blank value was supplied.
func (a Amount) IsSet() bool { return a.set }

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*a = Amount{}
		return nil
	}
	*a = NewAmount(strings.Trim(s, `"`))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.set {
		return []byte("null"), nil
	}
	return a.d.MarshalJSON()
}
