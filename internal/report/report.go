// Package report computes read-only aggregations over a snapshot for the
// dashboard views: monthly sales, dealer and vendor totals, per-product
// profit, employee activity, and stock valuation.
package report

import (
	"slices"
	"strings"
	"time"

	"gudangku/backend/internal/domain"
)

type MonthlySale struct {
	Month        string  `json:"month"`
	Transactions int     `json:"transactions"`
	Total        float64 `json:"total"`
}

type DealerSales struct {
	DealerID     string  `json:"dealerId"`
	DealerName   string  `json:"dealerName"`
	Transactions int     `json:"transactions"`
	Revenue      float64 `json:"revenue"`
}

type ProductProfit struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	UnitsSold    int     `json:"unitsSold"`
	Revenue      float64 `json:"revenue"`
	CostOfGoods  float64 `json:"costOfGoods"`
	Profit       float64 `json:"profit"`
}

type VendorPurchases struct {
	VendorID   string  `json:"vendorId"`
	VendorName string  `json:"vendorName"`
	Deliveries int     `json:"deliveries"`
	Total      float64 `json:"total"`
}

type EmployeeActivity struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Sales      int    `json:"sales"`
	Deliveries int    `json:"deliveries"`
	Breakings  int    `json:"breakings"`
	Movements  int    `json:"movements"`
	Receipts   int    `json:"receipts"`
}

type ValuationRow struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	IsBulk       bool    `json:"isBulk"`
	Quantity     int     `json:"quantity"`
	Cost         float64 `json:"cost"`
	Value        float64 `json:"value"`
	LocationID   string  `json:"locationId,omitempty"`
	LocationName string  `json:"locationName,omitempty"`
}

// monthOf buckets a record date into "YYYY-MM". Dates are caller-supplied
// strings; anything unparseable lands in the "unknown" bucket instead of
// failing the whole report.
func monthOf(date string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format("2006-01")
		}
	}
	if len(date) >= 7 && date[4] == '-' {
		return date[:7]
	}
	return "unknown"
}

func MonthlySales(state *domain.AppState) []MonthlySale {
	byMonth := map[string]*MonthlySale{}
	for _, sale := range state.SaleTransactions {
		month := monthOf(sale.Date)
		entry := byMonth[month]
		if entry == nil {
			entry = &MonthlySale{Month: month}
			byMonth[month] = entry
		}
		entry.Transactions++
		entry.Total += sale.TotalAmount
	}

	result := make([]MonthlySale, 0, len(byMonth))
	for _, entry := range byMonth {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b MonthlySale) int {
		return strings.Compare(a.Month, b.Month)
	})
	return result
}

func DealerSalesRanking(state *domain.AppState) []DealerSales {
	names := make(map[string]string, len(state.Dealers))
	for _, dealer := range state.Dealers {
		names[dealer.ID] = dealer.Name
	}

	byDealer := map[string]*DealerSales{}
	for _, sale := range state.SaleTransactions {
		entry := byDealer[sale.DealerID]
		if entry == nil {
			entry = &DealerSales{DealerID: sale.DealerID, DealerName: names[sale.DealerID]}
			byDealer[sale.DealerID] = entry
		}
		entry.Transactions++
		entry.Revenue += sale.TotalAmount
	}

	result := make([]DealerSales, 0, len(byDealer))
	for _, entry := range byDealer {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b DealerSales) int {
		if a.Revenue != b.Revenue {
			if a.Revenue > b.Revenue {
				return -1
			}
			return 1
		}
		return strings.Compare(a.DealerID, b.DealerID)
	})
	return result
}

// ProductProfits values cost-of-goods at each product's current
// weighted-average cost, the same figure the delivery processor maintains.
func ProductProfits(state *domain.AppState) []ProductProfit {
	products := make(map[string]domain.Product, len(state.Products))
	for _, product := range state.Products {
		products[product.SKU] = product
	}

	bySKU := map[string]*ProductProfit{}
	for _, sale := range state.SaleTransactions {
		for _, item := range sale.ProductsSold {
			entry := bySKU[item.SKU]
			if entry == nil {
				entry = &ProductProfit{SKU: item.SKU, Name: products[item.SKU].Name}
				bySKU[item.SKU] = entry
			}
			entry.UnitsSold += item.Quantity
			entry.Revenue += float64(item.Quantity) * item.Price
			entry.CostOfGoods += float64(item.Quantity) * products[item.SKU].Cost
		}
	}

	result := make([]ProductProfit, 0, len(bySKU))
	for _, entry := range bySKU {
		entry.Profit = entry.Revenue - entry.CostOfGoods
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b ProductProfit) int {
		if a.Profit != b.Profit {
			if a.Profit > b.Profit {
				return -1
			}
			return 1
		}
		return strings.Compare(a.SKU, b.SKU)
	})
	return result
}

func VendorBulkPurchases(state *domain.AppState) []VendorPurchases {
	names := make(map[string]string, len(state.Vendors))
	for _, vendor := range state.Vendors {
		names[vendor.ID] = vendor.Name
	}

	byVendor := map[string]*VendorPurchases{}
	for _, delivery := range state.BulkDeliveries {
		entry := byVendor[delivery.VendorID]
		if entry == nil {
			entry = &VendorPurchases{VendorID: delivery.VendorID, VendorName: names[delivery.VendorID]}
			byVendor[delivery.VendorID] = entry
		}
		entry.Deliveries++
		entry.Total += delivery.TotalAmount
	}

	result := make([]VendorPurchases, 0, len(byVendor))
	for _, entry := range byVendor {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b VendorPurchases) int {
		if a.Total != b.Total {
			if a.Total > b.Total {
				return -1
			}
			return 1
		}
		return strings.Compare(a.VendorID, b.VendorID)
	})
	return result
}

func EmployeeActivities(state *domain.AppState) []EmployeeActivity {
	byEmployee := map[string]*EmployeeActivity{}
	entryFor := func(employeeID string) *EmployeeActivity {
		if employeeID == "" {
			return nil
		}
		entry := byEmployee[employeeID]
		if entry == nil {
			entry = &EmployeeActivity{EmployeeID: employeeID}
			byEmployee[employeeID] = entry
		}
		return entry
	}

	for _, sale := range state.SaleTransactions {
		if entry := entryFor(sale.EmployeeID); entry != nil {
			entry.Sales++
		}
	}
	for _, delivery := range state.BulkDeliveries {
		if entry := entryFor(delivery.EmployeeID); entry != nil {
			entry.Deliveries++
		}
	}
	for _, breaking := range state.BulkBreakings {
		if entry := entryFor(breaking.EmployeeID); entry != nil {
			entry.Breakings++
		}
	}
	for _, movement := range state.InventoryMovements {
		if entry := entryFor(movement.EmployeeID); entry != nil {
			entry.Movements++
		}
	}
	for _, receipt := range state.ProductReceipts {
		if entry := entryFor(receipt.EmployeeID); entry != nil {
			entry.Receipts++
		}
	}

	for _, employee := range state.Employees {
		if entry := byEmployee[employee.ID]; entry != nil {
			entry.Name = employee.Name
		}
	}

	result := make([]EmployeeActivity, 0, len(byEmployee))
	for _, entry := range byEmployee {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b EmployeeActivity) int {
		return strings.Compare(a.EmployeeID, b.EmployeeID)
	})
	return result
}

func InventoryValuation(state *domain.AppState) []ValuationRow {
	locations := make(map[string]string, len(state.ShelfLocations))
	for _, location := range state.ShelfLocations {
		locations[location.ID] = location.Name
	}

	result := make([]ValuationRow, 0, len(state.Products))
	for _, product := range state.Products {
		result = append(result, ValuationRow{
			SKU:          product.SKU,
			Name:         product.Name,
			IsBulk:       product.IsBulk,
			Quantity:     product.Quantity,
			Cost:         product.Cost,
			Value:        float64(product.Quantity) * product.Cost,
			LocationID:   product.LocationID,
			LocationName: locations[product.LocationID],
		})
	}
	return result
}
