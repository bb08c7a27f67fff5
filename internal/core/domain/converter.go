package domain

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/shopspring/decimal"
)

const (
	UnitBTC  = "BTC"
	UnitTBTC = "tBTC"
)

// Converter renders satoshi amounts in the unit of the active network.
type Converter struct {
	Unit string
}

// NewConverter returns a converter using BTC on mainnet and tBTC elsewhere.
func NewConverter(net *chaincfg.Params) Converter {
	if net != nil && net.Net == chaincfg.MainNetParams.Net {
		return Converter{UnitBTC}
	}
	return Converter{UnitTBTC}
}

// Converts returns the amount expressed in whole coins with exact precision.
func (c Converter) Converts(amount btcutil.Amount) decimal.Decimal {
	return decimal.New(int64(amount), -8)
}

// Format returns the converted amount followed by the unit.
func (c Converter) Format(amount btcutil.Amount) string {
	return c.Converts(amount).StringFixed(8) + " " + c.Unit
}
