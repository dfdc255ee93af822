package ledger

import (
	"context"
	"fmt"
	"strings"

	"gudangku/backend/internal/domain"
)

// Catalog registry: create, list via Snapshot, and update entries in each
// catalog collection. Keys are caller-assigned; the only format rule is
// non-emptiness. Insertion order is preserved and updates keep position.
// Renaming a key cascades into every transaction log that references it,
// within the same state transition.

func (l *Ledger) AddEmployee(ctx context.Context, employee domain.Employee) error {
	if strings.TrimSpace(employee.ID) == "" {
		return fmt.Errorf("%w: employee id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if employeeIndex(l.state.Employees, employee.ID) != -1 {
		return fmt.Errorf("%w: employee %s", ErrDuplicateKey, employee.ID)
	}

	next := l.state.Clone()
	next.Employees = append(next.Employees, employee)
	l.commit(ctx, next)
	return nil
}

func (l *Ledger) UpdateEmployee(ctx context.Context, oldID string, updated domain.Employee) error {
	if strings.TrimSpace(updated.ID) == "" {
		return fmt.Errorf("%w: employee id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := employeeIndex(l.state.Employees, oldID)
	if idx == -1 {
		return fmt.Errorf("%w: employee %s", ErrNotFound, oldID)
	}
	if updated.ID != oldID && employeeIndex(l.state.Employees, updated.ID) != -1 {
		return fmt.Errorf("%w: employee %s", ErrDuplicateKey, updated.ID)
	}

	next := l.state.Clone()
	next.Employees[idx] = updated

	if updated.ID != oldID {
		for i := range next.SaleTransactions {
			if next.SaleTransactions[i].EmployeeID == oldID {
				next.SaleTransactions[i].EmployeeID = updated.ID
			}
		}
		for i := range next.BulkDeliveries {
			if next.BulkDeliveries[i].EmployeeID == oldID {
				next.BulkDeliveries[i].EmployeeID = updated.ID
			}
		}
		for i := range next.BulkBreakings {
			if next.BulkBreakings[i].EmployeeID == oldID {
				next.BulkBreakings[i].EmployeeID = updated.ID
			}
		}
		for i := range next.InventoryMovements {
			if next.InventoryMovements[i].EmployeeID == oldID {
				next.InventoryMovements[i].EmployeeID = updated.ID
			}
		}
		for i := range next.ProductReceipts {
			if next.ProductReceipts[i].EmployeeID == oldID {
				next.ProductReceipts[i].EmployeeID = updated.ID
			}
		}
		for i := range next.EmployeePayments {
			if next.EmployeePayments[i].EmployeeID == oldID {
				next.EmployeePayments[i].EmployeeID = updated.ID
			}
		}
	}

	l.commit(ctx, next)
	return nil
}

func (l *Ledger) AddDealer(ctx context.Context, dealer domain.Dealer) error {
	if strings.TrimSpace(dealer.ID) == "" {
		return fmt.Errorf("%w: dealer id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if dealerIndex(l.state.Dealers, dealer.ID) != -1 {
		return fmt.Errorf("%w: dealer %s", ErrDuplicateKey, dealer.ID)
	}

	next := l.state.Clone()
	next.Dealers = append(next.Dealers, dealer)
	l.commit(ctx, next)
	return nil
}

func (l *Ledger) UpdateDealer(ctx context.Context, oldID string, updated domain.Dealer) error {
	if strings.TrimSpace(updated.ID) == "" {
		return fmt.Errorf("%w: dealer id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := dealerIndex(l.state.Dealers, oldID)
	if idx == -1 {
		return fmt.Errorf("%w: dealer %s", ErrNotFound, oldID)
	}
	if updated.ID != oldID && dealerIndex(l.state.Dealers, updated.ID) != -1 {
		return fmt.Errorf("%w: dealer %s", ErrDuplicateKey, updated.ID)
	}

	next := l.state.Clone()
	next.Dealers[idx] = updated

	if updated.ID != oldID {
		for i := range next.SaleTransactions {
			if next.SaleTransactions[i].DealerID == oldID {
				next.SaleTransactions[i].DealerID = updated.ID
			}
		}
	}

	l.commit(ctx, next)
	return nil
}

func (l *Ledger) AddVendor(ctx context.Context, vendor domain.Vendor) error {
	if strings.TrimSpace(vendor.ID) == "" {
		return fmt.Errorf("%w: vendor id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if vendorIndex(l.state.Vendors, vendor.ID) != -1 {
		return fmt.Errorf("%w: vendor %s", ErrDuplicateKey, vendor.ID)
	}

	next := l.state.Clone()
	next.Vendors = append(next.Vendors, vendor)
	l.commit(ctx, next)
	return nil
}

func (l *Ledger) UpdateVendor(ctx context.Context, oldID string, updated domain.Vendor) error {
	if strings.TrimSpace(updated.ID) == "" {
		return fmt.Errorf("%w: vendor id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := vendorIndex(l.state.Vendors, oldID)
	if idx == -1 {
		return fmt.Errorf("%w: vendor %s", ErrNotFound, oldID)
	}
	if updated.ID != oldID && vendorIndex(l.state.Vendors, updated.ID) != -1 {
		return fmt.Errorf("%w: vendor %s", ErrDuplicateKey, updated.ID)
	}

	next := l.state.Clone()
	next.Vendors[idx] = updated

	if updated.ID != oldID {
		for i := range next.BulkDeliveries {
			if next.BulkDeliveries[i].VendorID == oldID {
				next.BulkDeliveries[i].VendorID = updated.ID
			}
		}
		for i := range next.ProductReceipts {
			if next.ProductReceipts[i].VendorID == oldID {
				next.ProductReceipts[i].VendorID = updated.ID
			}
		}
	}

	l.commit(ctx, next)
	return nil
}

func (l *Ledger) AddShelfLocation(ctx context.Context, location domain.ShelfLocation) error {
	if strings.TrimSpace(location.ID) == "" {
		return fmt.Errorf("%w: shelf location id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if locationIndex(l.state.ShelfLocations, location.ID) != -1 {
		return fmt.Errorf("%w: shelf location %s", ErrDuplicateKey, location.ID)
	}

	next := l.state.Clone()
	next.ShelfLocations = append(next.ShelfLocations, location)
	l.commit(ctx, next)
	return nil
}

func (l *Ledger) UpdateShelfLocation(ctx context.Context, oldID string, updated domain.ShelfLocation) error {
	if strings.TrimSpace(updated.ID) == "" {
		return fmt.Errorf("%w: shelf location id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := locationIndex(l.state.ShelfLocations, oldID)
	if idx == -1 {
		return fmt.Errorf("%w: shelf location %s", ErrNotFound, oldID)
	}
	if updated.ID != oldID && locationIndex(l.state.ShelfLocations, updated.ID) != -1 {
		return fmt.Errorf("%w: shelf location %s", ErrDuplicateKey, updated.ID)
	}

	next := l.state.Clone()
	next.ShelfLocations[idx] = updated

	if updated.ID != oldID {
		for i := range next.Products {
			if next.Products[i].LocationID == oldID {
				next.Products[i].LocationID = updated.ID
			}
		}
		for i := range next.InventoryMovements {
			if next.InventoryMovements[i].FromLocationID == oldID {
				next.InventoryMovements[i].FromLocationID = updated.ID
			}
			if next.InventoryMovements[i].ToLocationID == oldID {
				next.InventoryMovements[i].ToLocationID = updated.ID
			}
		}
		for i := range next.ProductReceipts {
			if next.ProductReceipts[i].ToLocationID == oldID {
				next.ProductReceipts[i].ToLocationID = updated.ID
			}
		}
	}

	l.commit(ctx, next)
	return nil
}

func (l *Ledger) AddDevice(ctx context.Context, device domain.Device) error {
	if strings.TrimSpace(device.ID) == "" {
		return fmt.Errorf("%w: device id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if deviceIndex(l.state.Devices, device.ID) != -1 {
		return fmt.Errorf("%w: device %s", ErrDuplicateKey, device.ID)
	}

	next := l.state.Clone()
	next.Devices = append(next.Devices, device)
	l.commit(ctx, next)
	return nil
}

// UpdateDevice has no cascade: devices are standalone, nothing references them.
func (l *Ledger) UpdateDevice(ctx context.Context, oldID string, updated domain.Device) error {
	if strings.TrimSpace(updated.ID) == "" {
		return fmt.Errorf("%w: device id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := deviceIndex(l.state.Devices, oldID)
	if idx == -1 {
		return fmt.Errorf("%w: device %s", ErrNotFound, oldID)
	}
	if updated.ID != oldID && deviceIndex(l.state.Devices, updated.ID) != -1 {
		return fmt.Errorf("%w: device %s", ErrDuplicateKey, updated.ID)
	}

	next := l.state.Clone()
	next.Devices[idx] = updated
	l.commit(ctx, next)
	return nil
}

func (l *Ledger) AddProduct(ctx context.Context, product domain.Product) error {
	if strings.TrimSpace(product.SKU) == "" {
		return fmt.Errorf("%w: product sku required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if productIndex(l.state.Products, product.SKU) != -1 {
		return fmt.Errorf("%w: product %s", ErrDuplicateKey, product.SKU)
	}

	next := l.state.Clone()
	next.Products = append(next.Products, product)
	l.commit(ctx, next)
	return nil
}

// UpdateProduct replaces the product in place; when the SKU changes every
// reference in sales line items, deliveries, breakings (both the bulk
// source and the outputs), movements, and receipts is rewritten in the
// same transition, so no log ever points at a stale SKU.
func (l *Ledger) UpdateProduct(ctx context.Context, oldSKU string, updated domain.Product) error {
	if strings.TrimSpace(updated.SKU) == "" {
		return fmt.Errorf("%w: product sku required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := productIndex(l.state.Products, oldSKU)
	if idx == -1 {
		return fmt.Errorf("%w: product %s", ErrNotFound, oldSKU)
	}
	if updated.SKU != oldSKU && productIndex(l.state.Products, updated.SKU) != -1 {
		return fmt.Errorf("%w: product %s", ErrDuplicateKey, updated.SKU)
	}

	next := l.state.Clone()
	next.Products[idx] = updated

	if updated.SKU != oldSKU {
		for i := range next.SaleTransactions {
			items := next.SaleTransactions[i].ProductsSold
			for j := range items {
				if items[j].SKU == oldSKU {
					items[j].SKU = updated.SKU
				}
			}
		}
		for i := range next.BulkDeliveries {
			if next.BulkDeliveries[i].ProductID == oldSKU {
				next.BulkDeliveries[i].ProductID = updated.SKU
			}
		}
		for i := range next.BulkBreakings {
			if next.BulkBreakings[i].BulkProductID == oldSKU {
				next.BulkBreakings[i].BulkProductID = updated.SKU
			}
			outputs := next.BulkBreakings[i].BrokenIntoProducts
			for j := range outputs {
				if outputs[j].SKU == oldSKU {
					outputs[j].SKU = updated.SKU
				}
			}
		}
		for i := range next.InventoryMovements {
			if next.InventoryMovements[i].ProductID == oldSKU {
				next.InventoryMovements[i].ProductID = updated.SKU
			}
		}
		for i := range next.ProductReceipts {
			if next.ProductReceipts[i].ProductID == oldSKU {
				next.ProductReceipts[i].ProductID = updated.SKU
			}
		}
	}

	l.commit(ctx, next)
	return nil
}

// AddEmployeePayment appends a standalone ledger entry; nothing else in
// the aggregate derives from it.
func (l *Ledger) AddEmployeePayment(ctx context.Context, payment domain.EmployeePayment) error {
	if strings.TrimSpace(payment.ID) == "" {
		return fmt.Errorf("%w: payment id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.Clone()
	next.EmployeePayments = append(next.EmployeePayments, payment)
	l.commit(ctx, next)
	return nil
}
