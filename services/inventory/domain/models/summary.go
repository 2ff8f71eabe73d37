package models

import "github.com/shopspring/decimal"

// LowStockThreshold is the on-hand quantity below which an available product
// counts as low stock.
const LowStockThreshold = 10

// Summary aggregates the dashboard figures of one company.
type Summary struct {
	Products    int             `json:"products"`
	UnitsOnHand int64           `json:"units_on_hand"`
	UnitsSold   int64           `json:"units_sold"`
	StockValue  decimal.Decimal `json:"stock_value"`
	SoldValue   decimal.Decimal `json:"sold_value"`
	LowStock    int             `json:"low_stock"`
	OutOfStock  int             `json:"out_of_stock"`
}

// Summarize folds products into a Summary. Sold value is priced at the
// current unit price, matching what the console displays.
func Summarize(products []*Product) Summary {
	s := Summary{StockValue: decimal.Zero, SoldValue: decimal.Zero}
	for _, p := range products {
		s.Products++
		s.UnitsOnHand += p.QtyCurrent
		s.UnitsSold += p.QtySold
		s.StockValue = s.StockValue.Add(p.StockValue())
		s.SoldValue = s.SoldValue.Add(p.Price.Mul(decimal.NewFromInt(p.QtySold)))
		switch {
		case p.QtyCurrent == 0:
			s.OutOfStock++
		case p.QtyCurrent < LowStockThreshold:
			s.LowStock++
		}
	}
	return s
}
