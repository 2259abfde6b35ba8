package oracle

import (
	"github.com/shopspring/decimal"
)

// IOracle quotes fiat prices for crypto currencies.
type IOracle interface {
	// GetRate returns the price of one unit of the given crypto symbol
	// in the given fiat currency.
	GetRate(symbol string, fiatCurrency string) (decimal.Decimal, error)
}
