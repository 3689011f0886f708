package analytics

import (
	"sort"
	"strings"

	"github.com/niaga-platform/service-pos-analytics/internal/models"
)

// CategoryOthers collects products that match no base-spirit keyword
const CategoryOthers = "Others"

type spiritCategory struct {
	name     string
	keywords []string
}

// spiritCategories is matched in order against lower-cased product names.
// Matching is substring based, so "Ginger Ale" counts as Gin.
var spiritCategories = []spiritCategory{
	{"Gin", []string{"gin", "negroni", "martini", "琴酒"}},
	{"Whisky", []string{"whisky", "whiskey", "bourbon", "scotch", "highball", "old fashioned", "威士忌"}},
	{"Rum", []string{"rum", "mojito", "daiquiri", "蘭姆"}},
	{"Tequila", []string{"tequila", "margarita", "mezcal", "龍舌蘭"}},
	{"Vodka", []string{"vodka", "moscow mule", "伏特加"}},
	{"Brandy", []string{"brandy", "cognac", "sidecar", "白蘭地"}},
	{"Mocktail", []string{"mocktail", "virgin", "non-alcoholic", "無酒精"}},
}

func (c spiritCategory) matches(lowerName string) bool {
	for _, kw := range c.keywords {
		if strings.Contains(lowerName, kw) {
			return true
		}
	}
	return false
}

// CategorizeProduct returns the first base-spirit category whose keywords appear in name
func CategorizeProduct(name string) string {
	lower := strings.ToLower(name)
	for _, c := range spiritCategories {
		if c.matches(lower) {
			return c.name
		}
	}
	return CategoryOthers
}

type productAcc struct {
	name      string
	quantity  int
	revenue   amount
	orders    map[string]struct{}
	customers map[string]struct{}
}

// AnalyzeProducts aggregates line items by product name, highest revenue first
func AnalyzeProducts(orders []models.Order) ProductAnalysis {
	index := make(map[string]*productAcc)
	var totalRevenue amount
	totalQuantity := 0

	for _, o := range orders {
		for _, item := range o.Items {
			p, ok := index[item.Name]
			if !ok {
				p = &productAcc{
					name:      item.Name,
					orders:    make(map[string]struct{}),
					customers: make(map[string]struct{}),
				}
				index[item.Name] = p
			}
			p.quantity += item.Quantity
			p.revenue.addLine(item.Price, item.Quantity)
			p.orders[o.ID] = struct{}{}
			if o.CustomerID != "" {
				p.customers[o.CustomerID] = struct{}{}
			}
			totalRevenue.addLine(item.Price, item.Quantity)
			totalQuantity += item.Quantity
		}
	}

	products := make([]ProductStat, 0, len(index))
	for _, p := range index {
		products = append(products, ProductStat{
			Name:            p.name,
			Category:        CategorizeProduct(p.name),
			TotalQuantity:   p.quantity,
			TotalRevenue:    p.revenue.float(),
			OrderCount:      len(p.orders),
			AveragePrice:    p.revenue.per(p.quantity),
			UniqueCustomers: len(p.customers),
		})
	}
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].TotalRevenue != products[j].TotalRevenue {
			return products[i].TotalRevenue > products[j].TotalRevenue
		}
		return products[i].Name < products[j].Name
	})

	return ProductAnalysis{
		Products:      products,
		Categories:    rollupCategories(products, totalRevenue.float()),
		TotalProducts: len(products),
		TotalQuantity: totalQuantity,
		TotalRevenue:  totalRevenue.float(),
	}
}

// rollupCategories sums products under every category they match, so a name with
// keywords from two categories is counted in both. Products with no match go to Others.
func rollupCategories(products []ProductStat, totalRevenue float64) []CategoryStat {
	out := make([]CategoryStat, 0, len(spiritCategories)+1)
	for _, c := range spiritCategories {
		out = append(out, CategoryStat{Category: c.name, Products: []string{}})
	}
	out = append(out, CategoryStat{Category: CategoryOthers, Products: []string{}})
	revenues := make([]amount, len(out))

	for _, p := range products {
		lower := strings.ToLower(p.Name)
		matched := false
		for i, c := range spiritCategories {
			if !c.matches(lower) {
				continue
			}
			matched = true
			out[i].ProductCount++
			out[i].TotalQuantity += p.TotalQuantity
			out[i].Products = append(out[i].Products, p.Name)
			revenues[i].add(p.TotalRevenue)
		}
		if !matched {
			last := len(out) - 1
			out[last].ProductCount++
			out[last].TotalQuantity += p.TotalQuantity
			out[last].Products = append(out[last].Products, p.Name)
			revenues[last].add(p.TotalRevenue)
		}
	}

	for i := range out {
		out[i].TotalRevenue = revenues[i].float()
		out[i].Percentage = percentage(out[i].TotalRevenue, totalRevenue)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalRevenue > out[j].TotalRevenue
	})
	return out
}
