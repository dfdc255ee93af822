package report

import (
	"testing"

	"gudangku/backend/internal/domain"
)

func testState() *domain.AppState {
	state := domain.NewAppState()
	state.Dealers = []domain.Dealer{
		{ID: "dlr-1", Name: "Toko Maju"},
		{ID: "dlr-2", Name: "Toko Jaya"},
	}
	state.Vendors = []domain.Vendor{
		{ID: "ven-1", Name: "CV Sumber"},
	}
	state.Employees = []domain.Employee{
		{ID: "emp-1", Name: "Asep"},
	}
	state.ShelfLocations = []domain.ShelfLocation{
		{ID: "loc-a", Name: "Aisle A"},
	}
	state.Products = []domain.Product{
		{SKU: "SKU-1", Name: "Beans", Quantity: 10, Cost: 2.0, LocationID: "loc-a"},
		{SKU: "BULK-1", Name: "Bean Sack", IsBulk: true, Quantity: 3, Cost: 40.0},
	}
	state.SaleTransactions = []domain.SaleTransaction{
		{
			ID: "sale-1", DealerID: "dlr-1", EmployeeID: "emp-1", Date: "2026-01-10",
			ProductsSold: []domain.SaleItem{{SKU: "SKU-1", Quantity: 4, Price: 3.0}},
			TotalAmount:  12.0,
		},
		{
			ID: "sale-2", DealerID: "dlr-2", EmployeeID: "emp-1", Date: "2026-02-05",
			ProductsSold: []domain.SaleItem{{SKU: "SKU-1", Quantity: 2, Price: 3.5}},
			TotalAmount:  7.0,
		},
	}
	state.BulkDeliveries = []domain.BulkDelivery{
		{ID: "bulkdel-1", VendorID: "ven-1", ProductID: "BULK-1", Quantity: 2, TotalAmount: 80.0, EmployeeID: "emp-1", Date: "2026-01-03"},
	}
	return state
}

func TestMonthlySalesBucketsByMonth(t *testing.T) {
	months := MonthlySales(testState())

	if len(months) != 2 {
		t.Fatalf("expected 2 months, got %d", len(months))
	}
	if months[0].Month != "2026-01" || months[0].Transactions != 1 || months[0].Total != 12.0 {
		t.Fatalf("unexpected first month: %#v", months[0])
	}
	if months[1].Month != "2026-02" || months[1].Total != 7.0 {
		t.Fatalf("unexpected second month: %#v", months[1])
	}
}

func TestMonthlySalesUnparseableDateGoesToUnknownBucket(t *testing.T) {
	state := domain.NewAppState()
	state.SaleTransactions = []domain.SaleTransaction{
		{ID: "sale-1", Date: "gibberish", TotalAmount: 5},
	}

	months := MonthlySales(state)
	if len(months) != 1 || months[0].Month != "unknown" {
		t.Fatalf("expected unknown bucket, got %#v", months)
	}
}

func TestDealerSalesRankingOrdersByRevenue(t *testing.T) {
	dealers := DealerSalesRanking(testState())

	if len(dealers) != 2 {
		t.Fatalf("expected 2 dealers, got %d", len(dealers))
	}
	if dealers[0].DealerID != "dlr-1" || dealers[0].Revenue != 12.0 {
		t.Fatalf("expected dlr-1 ranked first: %#v", dealers[0])
	}
	if dealers[0].DealerName != "Toko Maju" {
		t.Fatalf("dealer name not resolved: %#v", dealers[0])
	}
}

func TestProductProfitsUsesCurrentAverageCost(t *testing.T) {
	products := ProductProfits(testState())

	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	entry := products[0]
	if entry.SKU != "SKU-1" || entry.UnitsSold != 6 {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	// revenue 4*3.00 + 2*3.50 = 19.00, cogs 6*2.00 = 12.00
	if entry.Revenue != 19.0 || entry.CostOfGoods != 12.0 || entry.Profit != 7.0 {
		t.Fatalf("unexpected figures: %#v", entry)
	}
}

func TestVendorBulkPurchasesTotals(t *testing.T) {
	vendors := VendorBulkPurchases(testState())

	if len(vendors) != 1 {
		t.Fatalf("expected 1 vendor, got %d", len(vendors))
	}
	if vendors[0].VendorName != "CV Sumber" || vendors[0].Deliveries != 1 || vendors[0].Total != 80.0 {
		t.Fatalf("unexpected vendor row: %#v", vendors[0])
	}
}

func TestEmployeeActivitiesCountsPerLog(t *testing.T) {
	employees := EmployeeActivities(testState())

	if len(employees) != 1 {
		t.Fatalf("expected 1 employee, got %d", len(employees))
	}
	entry := employees[0]
	if entry.Name != "Asep" || entry.Sales != 2 || entry.Deliveries != 1 {
		t.Fatalf("unexpected activity row: %#v", entry)
	}
}

func TestInventoryValuation(t *testing.T) {
	rows := InventoryValuation(testState())

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Value != 20.0 {
		t.Fatalf("expected value 20.00 for SKU-1, got %v", rows[0].Value)
	}
	if rows[0].LocationName != "Aisle A" {
		t.Fatalf("location name not resolved: %#v", rows[0])
	}
	if rows[1].Value != 120.0 {
		t.Fatalf("expected value 120.00 for BULK-1, got %v", rows[1].Value)
	}
}
