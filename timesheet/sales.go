/*
sales.go - monthly sales CSV parsing (display-only overlay)

The sales export attaches a per-employee monthly sales figure to
verification output. It takes no part in reconciliation.
*/
package timesheet

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SalesKey identifies one employee-month of sales.
type SalesKey struct {
	Name  string // normalized employee name
	Month string // YYYY-MM
}

// Sales export column headers.
const (
	colSalesMonth  = "年月"
	colSalesName   = "氏名"
	colSalesAmount = "売上金額"
)

// ParseSalesCSV parses the monthly sales export into per
// employee-month totals. Amounts carry a currency symbol and
// thousands separators ("¥1,234,567"); both are stripped. Rows that
// still fail to parse are skipped.
func ParseSalesCSV(data string) map[SalesKey]decimal.Decimal {
	records := readCSV(data)
	if len(records) < 2 {
		return map[SalesKey]decimal.Decimal{}
	}

	cols := headerIndex(records[0])
	totals := make(map[SalesKey]decimal.Decimal)

	for _, rec := range records[1:] {
		name := NormalizeName(cols.get(rec, colSalesName, colReporter))
		if name == "" {
			continue
		}
		month, ok := NormalizeMonth(cols.get(rec, colSalesMonth))
		if !ok {
			continue
		}

		amount, ok := parseCurrency(cols.get(rec, colSalesAmount))
		if !ok {
			continue
		}

		key := SalesKey{Name: name, Month: month}
		totals[key] = totals[key].Add(amount)
	}

	return totals
}

func parseCurrency(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "¥")
	s = strings.TrimPrefix(s, "￥")
	s = strings.TrimSuffix(s, "円")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
