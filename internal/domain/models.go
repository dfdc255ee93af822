package domain

// Employee can record any transaction and log in with a passcode.
type Employee struct {
	ID       string `json:"id"`
	Passcode string `json:"passcode"`
	Name     string `json:"name"`
}

// Dealer buys sellable products; sales reference it by id.
type Dealer struct {
	ID       string `json:"id"`
	Passcode string `json:"passcode"`
	Name     string `json:"name"`
}

type Vendor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ShelfLocation struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	QRCode string `json:"qrCode"`
}

type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is the central mutable entity. Quantity is the authoritative
// on-hand count and Cost a quantity-weighted average unit cost. IsBulk
// gates which operations may target the product: bulk deliveries and
// bulk-breaking sources require IsBulk, breaking outputs forbid it.
type Product struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	Size       string  `json:"size"`
	IsBulk     bool    `json:"isBulk"`
	Quantity   int     `json:"quantity"`
	Cost       float64 `json:"cost"`
	LocationID string  `json:"locationId,omitempty"`
}

type SaleItem struct {
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type SaleTransaction struct {
	ID           string     `json:"id"`
	DealerID     string     `json:"dealerId"`
	EmployeeID   string     `json:"employeeId"`
	ProductsSold []SaleItem `json:"productsSold"`
	TotalAmount  float64    `json:"totalAmount"`
	Date         string     `json:"date"`
}

type BulkDelivery struct {
	ID          string  `json:"id"`
	VendorID    string  `json:"vendorId"`
	ProductID   string  `json:"productId"`
	Quantity    int     `json:"quantity"`
	TotalAmount float64 `json:"totalAmount"`
	Date        string  `json:"date"`
	EmployeeID  string  `json:"employeeId,omitempty"`
}

type BreakingOutput struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type BulkBreaking struct {
	ID                 string           `json:"id"`
	BulkProductID      string           `json:"bulkProductId"`
	QuantityToBreak    int              `json:"quantityToBreak"`
	BrokenIntoProducts []BreakingOutput `json:"brokenIntoProducts"`
	Date               string           `json:"date"`
	EmployeeID         string           `json:"employeeId"`
}

type InventoryMovement struct {
	ID             string `json:"id"`
	ProductID      string `json:"productId"`
	FromLocationID string `json:"fromLocationId,omitempty"`
	ToLocationID   string `json:"toLocationId"`
	Quantity       int    `json:"quantity"`
	Date           string `json:"date"`
	EmployeeID     string `json:"employeeId"`
}

type ProductReceipt struct {
	ID           string `json:"id"`
	VendorID     string `json:"vendorId,omitempty"`
	ProductID    string `json:"productId"`
	Quantity     int    `json:"quantity"`
	Date         string `json:"date"`
	EmployeeID   string `json:"employeeId,omitempty"`
	ToLocationID string `json:"toLocationId"`
}

type EmployeePayment struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employeeId"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

// AppState is the whole aggregate: catalogs plus transaction logs. It is
// persisted as a single snapshot and replaced wholesale on every mutation.
// The JSON shape matches the snapshot format the web client writes, so a
// slot seeded by the browser loads unchanged.
type AppState struct {
	Employees          []Employee          `json:"employees"`
	Dealers            []Dealer            `json:"dealers"`
	Vendors            []Vendor            `json:"vendors"`
	ShelfLocations     []ShelfLocation     `json:"shelfLocations"`
	Devices            []Device            `json:"devices"`
	Products           []Product           `json:"products"`
	BulkDeliveries     []BulkDelivery      `json:"bulkDeliveries"`
	BulkBreakings      []BulkBreaking      `json:"bulkBreakings"`
	InventoryMovements []InventoryMovement `json:"inventoryMovements"`
	SaleTransactions   []SaleTransaction   `json:"saleTransactions"`
	EmployeePayments   []EmployeePayment   `json:"employeePayments"`
	ProductReceipts    []ProductReceipt    `json:"productReceipts"`
}

// NewAppState returns the empty default aggregate with non-nil collections
// so an untouched state serializes as empty arrays, not nulls.
func NewAppState() *AppState {
	return &AppState{
		Employees:          []Employee{},
		Dealers:            []Dealer{},
		Vendors:            []Vendor{},
		ShelfLocations:     []ShelfLocation{},
		Devices:            []Device{},
		Products:           []Product{},
		BulkDeliveries:     []BulkDelivery{},
		BulkBreakings:      []BulkBreaking{},
		InventoryMovements: []InventoryMovement{},
		SaleTransactions:   []SaleTransaction{},
		EmployeePayments:   []EmployeePayment{},
		ProductReceipts:    []ProductReceipt{},
	}
}

// Clone returns a deep copy. Mutations work on a clone and swap it in only
// after every validation passes, which is what keeps failed operations
// side-effect free.
func (s *AppState) Clone() *AppState {
	dup := &AppState{
		Employees:          append([]Employee(nil), s.Employees...),
		Dealers:            append([]Dealer(nil), s.Dealers...),
		Vendors:            append([]Vendor(nil), s.Vendors...),
		ShelfLocations:     append([]ShelfLocation(nil), s.ShelfLocations...),
		Devices:            append([]Device(nil), s.Devices...),
		Products:           append([]Product(nil), s.Products...),
		BulkDeliveries:     append([]BulkDelivery(nil), s.BulkDeliveries...),
		InventoryMovements: append([]InventoryMovement(nil), s.InventoryMovements...),
		EmployeePayments:   append([]EmployeePayment(nil), s.EmployeePayments...),
		ProductReceipts:    append([]ProductReceipt(nil), s.ProductReceipts...),
	}

	dup.SaleTransactions = make([]SaleTransaction, len(s.SaleTransactions))
	for i, sale := range s.SaleTransactions {
		sale.ProductsSold = append([]SaleItem(nil), sale.ProductsSold...)
		dup.SaleTransactions[i] = sale
	}

	dup.BulkBreakings = make([]BulkBreaking, len(s.BulkBreakings))
	for i, breaking := range s.BulkBreakings {
		breaking.BrokenIntoProducts = append([]BreakingOutput(nil), breaking.BrokenIntoProducts...)
		dup.BulkBreakings[i] = breaking
	}

	return dup
}

// Actor is the authenticated caller attached to a request context.
type Actor struct {
	ID   string
	Name string
	Role string
}

const (
	RoleEmployee = "employee"
	RoleDealer   = "dealer"
)

type LoginRequest struct {
	ID       string `json:"id"`
	Passcode string `json:"passcode"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	ExpiresAt   string `json:"expires_at"`
}
