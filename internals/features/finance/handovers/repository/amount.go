package repository

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	return d, errors.Wrapf(err, "parse amount %q", s)
}
