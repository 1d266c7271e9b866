package postgres

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

// nullDecimalArg converts a nullable decimal to a query argument
func nullDecimalArg(v decimal.NullDecimal) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Decimal.String()
}

// parseNullDecimal parses a nullable NUMERIC column
func parseNullDecimal(column string, v sql.NullString) (decimal.NullDecimal, error) {
	if !v.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// parseDecimal parses a NUMERIC column
func parseDecimal(column, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return d, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// expectAffected turns an update or delete that touched no row into a not found error
func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
