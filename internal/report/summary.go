// Package report aggregates recorded orders and ledger movements into the
// daily summary the admin dashboard renders.
package report

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/interpos/api/internal/database"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const topProductsLimit = 20

// ProductCount is one sold product and how many units the period saw.
type ProductCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary is the aggregated view of a date range. Method maps keep whatever
// method strings the terminals recorded.
type Summary struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`

	TotalSales     decimal.Decimal            `json:"totalSales"`
	TotalSalesCash decimal.Decimal            `json:"totalSalesCash"`
	TotalOrders    int                        `json:"totalOrders"`
	SalesByMethod  map[string]decimal.Decimal `json:"salesByMethod"`
	SalesCounts    map[string]int             `json:"salesCountsByMethod"`

	TotalRecharges    decimal.Decimal            `json:"totalRecargas"`
	RechargesByMethod map[string]decimal.Decimal `json:"recargasByMethod"`
	RechargesCounts   map[string]int             `json:"recargasCountsByMethod"`

	TopProducts []ProductCount `json:"topProducts"`
}

// Summarize filters orders and ledger entries to the inclusive [startDate,
// endDate] range (calendar days in loc, compared as YYYY-MM-DD strings; empty
// bounds are open) and aggregates them. Only positive ledger quantities count
// as recharges; sales live in the orders table.
func Summarize(orders []database.Order, entries []database.LedgerEntry, startDate, endDate string, loc *time.Location) Summary {
	s := Summary{
		StartDate:         startDate,
		EndDate:           endDate,
		TotalSales:        decimal.Zero,
		TotalSalesCash:    decimal.Zero,
		SalesByMethod:     make(map[string]decimal.Decimal),
		SalesCounts:       make(map[string]int),
		TotalRecharges:    decimal.Zero,
		RechargesByMethod: make(map[string]decimal.Decimal),
		RechargesCounts:   make(map[string]int),
	}

	productCounts := make(map[string]int)

	for _, o := range orders {
		if !inRange(o.RecordedAt, startDate, endDate, loc) {
			continue
		}

		amount := numericToDecimal(o.Amount)
		method := methodKey(o.Method)

		s.TotalSales = s.TotalSales.Add(amount)
		s.TotalOrders++
		s.SalesByMethod[method] = s.SalesByMethod[method].Add(amount)
		s.SalesCounts[method]++
		if strings.Contains(strings.ToLower(method), "efectivo") {
			s.TotalSalesCash = s.TotalSalesCash.Add(amount)
		}

		for name, count := range ParseProducts(o.Products) {
			productCounts[name] += count
		}
	}

	for _, e := range entries {
		if !inRange(e.RecordedAt, startDate, endDate, loc) {
			continue
		}

		quantity := numericToDecimal(e.Quantity)
		if !quantity.IsPositive() {
			continue
		}

		method := methodKey(e.Method.String)
		s.TotalRecharges = s.TotalRecharges.Add(quantity)
		s.RechargesByMethod[method] = s.RechargesByMethod[method].Add(quantity)
		s.RechargesCounts[method]++
	}

	s.TopProducts = topProducts(productCounts, topProductsLimit)
	return s
}

// inRange compares the timestamp's calendar day in loc against the inclusive
// string bounds.
func inRange(t time.Time, startDate, endDate string, loc *time.Location) bool {
	day := t.In(loc).Format("2006-01-02")
	if startDate != "" && day < startDate {
		return false
	}
	if endDate != "" && day > endDate {
		return false
	}
	return true
}

func methodKey(method string) string {
	method = strings.TrimSpace(method)
	if method == "" {
		return "Sin método"
	}
	return method
}

func topProducts(counts map[string]int, limit int) []ProductCount {
	items := lo.MapToSlice(counts, func(name string, count int) ProductCount {
		return ProductCount{Name: name, Count: count}
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Product strings come from the terminals as free-ish text: items separated
// by commas, semicolons, pipes or newlines, each optionally carrying a
// quantity as "x2", "(2)", "- 2" or a bare trailing number.
var (
	itemSeparator = regexp.MustCompile(`[,;|\n]+`)

	qtyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*x\s*(\d+)\s*$`),
		regexp.MustCompile(`\(\s*(\d+)\s*\)\s*$`),
		regexp.MustCompile(`-\s*(\d+)\s*$`),
		regexp.MustCompile(`\s(\d+)\s*$`),
	}

	parenGroup  = regexp.MustCompile(`\([^)]*\)`)
	idMarker    = regexp.MustCompile(`(?i)\bid:?\s*\d+`)
	priceMarker = regexp.MustCompile(`\$\s*[\d.,]+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// ParseProducts turns a delimited products string into name → unit count.
func ParseProducts(products string) map[string]int {
	counts := make(map[string]int)
	for _, raw := range itemSeparator.Split(products, -1) {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}

		count := 1
		for _, pattern := range qtyPatterns {
			if match := pattern.FindStringSubmatch(item); match != nil {
				if n, err := strconv.Atoi(match[1]); err == nil && n > 0 {
					count = n
					item = strings.TrimSpace(item[:len(item)-len(match[0])])
				}
				break
			}
		}

		name := normalizeProductName(item)
		if name == "" {
			continue
		}
		counts[name] += count
	}
	return counts
}

func normalizeProductName(name string) string {
	name = parenGroup.ReplaceAllString(name, "")
	name = idMarker.ReplaceAllString(name, "")
	name = priceMarker.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(name, " ")
	return strings.TrimSpace(strings.Trim(name, "-–"))
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
