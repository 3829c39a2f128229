package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// nullText creates a pgtype.Text with empty string handling
func nullText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// textValue returns the string, empty for NULL
func textValue(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// pgNumericToDecimal converts pgtype.Numeric to decimal.Decimal, NULL maps to zero
func pgNumericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	str, err := n.MarshalJSON()
	if err != nil {
		return decimal.Zero, fmt.Errorf("marshal numeric: %w", err)
	}
	// Remove quotes from JSON string
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	return decimal.NewFromString(string(str))
}

// pgNumericToDecimalPtr keeps NULL as nil
func pgNumericToDecimalPtr(n pgtype.Numeric) (*decimal.Decimal, error) {
	if !n.Valid {
		return nil, nil
	}
	d, err := pgNumericToDecimal(n)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// decimalToNumeric converts decimal.Decimal to pgtype.Numeric
func decimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return n, fmt.Errorf("convert %s to numeric: %w", d.String(), err)
	}
	return n, nil
}

// numericScanner collects numeric columns and converts them after Scan.
// The first conversion error is kept.
type numericScanner struct {
	err error
}

func (s *numericScanner) dec(n pgtype.Numeric) decimal.Decimal {
	d, err := pgNumericToDecimal(n)
	if err != nil && s.err == nil {
		s.err = err
	}
	return d
}

func (s *numericScanner) decPtr(n pgtype.Numeric) *decimal.Decimal {
	d, err := pgNumericToDecimalPtr(n)
	if err != nil && s.err == nil {
		s.err = err
	}
	return d
}

// numericArgs converts decimals to query arguments
func numericArgs(values ...decimal.Decimal) ([]interface{}, error) {
	args := make([]interface{}, 0, len(values))
	for _, v := range values {
		n, err := decimalToNumeric(v)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
	}
	return args, nil
}
