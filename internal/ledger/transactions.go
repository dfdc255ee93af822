package ledger

import (
	"context"
	"fmt"
	"strings"

	"gudangku/backend/internal/domain"
)

// RecordSale decrements stock for every line whose SKU matches a product
// and appends the sale. All lines are validated against the working copy
// before anything is committed, so a short line anywhere aborts the whole
// sale with stock untouched. Lines for SKUs not in the catalog pass
// through without touching any product.
func (l *Ledger) RecordSale(ctx context.Context, sale domain.SaleTransaction) error {
	if strings.TrimSpace(sale.ID) == "" {
		return fmt.Errorf("%w: sale id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.Clone()
	for _, item := range sale.ProductsSold {
		idx := productIndex(next.Products, item.SKU)
		if idx == -1 {
			continue
		}
		product := &next.Products[idx]
		if product.Quantity < item.Quantity {
			return insufficientStock(*product, item.Quantity)
		}
		product.Quantity -= item.Quantity
	}

	next.SaleTransactions = append(next.SaleTransactions, sale)
	l.commit(ctx, next)
	return nil
}

// ReviseSale replaces a recorded sale and applies the merged stock delta:
// the original lines are reversed and the updated lines applied on the
// same working copy, so a product only fails the stock check if the
// combined adjustment would drive it negative. The record keeps its
// position in the log.
func (l *Ledger) ReviseSale(ctx context.Context, oldID string, updated domain.SaleTransaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := saleIndex(l.state.SaleTransactions, oldID)
	if idx == -1 {
		return fmt.Errorf("%w: sale %s", ErrNotFound, oldID)
	}

	next := l.state.Clone()
	for _, item := range next.SaleTransactions[idx].ProductsSold {
		if i := productIndex(next.Products, item.SKU); i != -1 {
			next.Products[i].Quantity += item.Quantity
		}
	}
	for _, item := range updated.ProductsSold {
		i := productIndex(next.Products, item.SKU)
		if i == -1 {
			return fmt.Errorf("%w: product %s", ErrNotFound, item.SKU)
		}
		product := &next.Products[i]
		if product.Quantity < item.Quantity {
			return insufficientStock(*product, item.Quantity)
		}
		product.Quantity -= item.Quantity
	}

	next.SaleTransactions[idx] = updated
	l.commit(ctx, next)
	return nil
}

// RecordBulkDelivery increases a bulk product's quantity and recomputes
// its weighted-average unit cost from the delivery's total amount.
func (l *Ledger) RecordBulkDelivery(ctx context.Context, delivery domain.BulkDelivery) error {
	if strings.TrimSpace(delivery.ID) == "" {
		return fmt.Errorf("%w: delivery id required", ErrInvalidRecord)
	}
	if delivery.Quantity < 0 {
		return fmt.Errorf("%w: delivery quantity must not be negative", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := productIndex(l.state.Products, delivery.ProductID)
	if idx == -1 {
		return fmt.Errorf("%w: product %s", ErrNotFound, delivery.ProductID)
	}
	if !l.state.Products[idx].IsBulk {
		p := l.state.Products[idx]
		return fmt.Errorf("%w: product %s (%s)", ErrNotBulkProduct, p.Name, p.SKU)
	}

	next := l.state.Clone()
	product := &next.Products[idx]
	newQuantity := product.Quantity + delivery.Quantity
	newCost := 0.0
	if newQuantity > 0 {
		newCost = (float64(product.Quantity)*product.Cost + delivery.TotalAmount) / float64(newQuantity)
	}
	product.Quantity = newQuantity
	product.Cost = newCost

	next.BulkDeliveries = append(next.BulkDeliveries, delivery)
	l.commit(ctx, next)
	return nil
}

// ReviseBulkDelivery reverses the old delivery's quantity effect and
// applies the updated one. When the target product is unchanged the cost
// is re-averaged against the baseline from before the original delivery
// was ever applied. When the target changes only quantities move on both
// products; the new target's cost is intentionally not re-averaged (known
// limitation carried from the books).
func (l *Ledger) ReviseBulkDelivery(ctx context.Context, oldID string, updated domain.BulkDelivery) error {
	if updated.Quantity < 0 {
		return fmt.Errorf("%w: delivery quantity must not be negative", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := deliveryIndex(l.state.BulkDeliveries, oldID)
	if idx == -1 {
		return fmt.Errorf("%w: bulk delivery %s", ErrNotFound, oldID)
	}

	next := l.state.Clone()
	old := next.BulkDeliveries[idx]

	oldProdIdx := productIndex(next.Products, old.ProductID)
	if oldProdIdx == -1 {
		return fmt.Errorf("%w: product %s", ErrNotFound, old.ProductID)
	}
	oldProduct := &next.Products[oldProdIdx]
	if oldProduct.Quantity < old.Quantity {
		// Some of the delivered stock was already sold or broken down;
		// reversing the delivery would drive the count negative.
		return insufficientStock(*oldProduct, old.Quantity)
	}
	oldProduct.Quantity -= old.Quantity

	newProdIdx := productIndex(next.Products, updated.ProductID)
	if newProdIdx == -1 {
		return fmt.Errorf("%w: product %s", ErrNotFound, updated.ProductID)
	}
	newProduct := &next.Products[newProdIdx]
	if !newProduct.IsBulk {
		return fmt.Errorf("%w: product %s (%s)", ErrNotBulkProduct, newProduct.Name, newProduct.SKU)
	}

	newProduct.Quantity += updated.Quantity
	if old.ProductID == updated.ProductID {
		// The stored cost still carries the original delivery's averaging;
		// anchor the recomputation to the quantity from before it applied.
		baseQuantity := newProduct.Quantity - updated.Quantity
		baseValue := float64(baseQuantity) * newProduct.Cost
		if newProduct.Quantity > 0 {
			newProduct.Cost = (baseValue + updated.TotalAmount) / float64(newProduct.Quantity)
		} else {
			newProduct.Cost = 0
		}
	}

	next.BulkDeliveries[idx] = updated
	l.commit(ctx, next)
	return nil
}

// RecordBulkBreaking converts bulk quantity into sellable quantities:
// the bulk source is decremented by QuantityToBreak and every output SKU
// incremented, in one commit. Any validation failure aborts with no
// partial effect.
func (l *Ledger) RecordBulkBreaking(ctx context.Context, breaking domain.BulkBreaking) error {
	if strings.TrimSpace(breaking.ID) == "" {
		return fmt.Errorf("%w: breaking id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.Clone()

	bulkIdx := productIndex(next.Products, breaking.BulkProductID)
	if bulkIdx == -1 {
		return fmt.Errorf("%w: product %s", ErrNotFound, breaking.BulkProductID)
	}
	bulk := &next.Products[bulkIdx]
	if !bulk.IsBulk {
		return fmt.Errorf("%w: product %s (%s)", ErrNotBulkProduct, bulk.Name, bulk.SKU)
	}
	if bulk.Quantity < breaking.QuantityToBreak {
		return insufficientStock(*bulk, breaking.QuantityToBreak)
	}
	bulk.Quantity -= breaking.QuantityToBreak

	for _, output := range breaking.BrokenIntoProducts {
		idx := productIndex(next.Products, output.SKU)
		if idx == -1 {
			return fmt.Errorf("%w: product %s", ErrNotFound, output.SKU)
		}
		target := &next.Products[idx]
		if target.IsBulk {
			return fmt.Errorf("%w: product %s (%s)", ErrBulkProductNotAllowed, target.Name, target.SKU)
		}
		target.Quantity += output.Quantity
	}

	next.BulkBreakings = append(next.BulkBreakings, breaking)
	l.commit(ctx, next)
	return nil
}

// RecordMovement relocates a product. The whole record's location field
// changes regardless of the quantity moved; stock is not partitioned per
// location, the quantity on the movement is only checked against the
// product's total on-hand count.
func (l *Ledger) RecordMovement(ctx context.Context, movement domain.InventoryMovement) error {
	if strings.TrimSpace(movement.ID) == "" {
		return fmt.Errorf("%w: movement id required", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := productIndex(l.state.Products, movement.ProductID)
	if idx == -1 {
		return fmt.Errorf("%w: product %s", ErrNotFound, movement.ProductID)
	}
	if l.state.Products[idx].Quantity < movement.Quantity {
		return insufficientStock(l.state.Products[idx], movement.Quantity)
	}

	next := l.state.Clone()
	next.Products[idx].LocationID = movement.ToLocationID
	next.InventoryMovements = append(next.InventoryMovements, movement)
	l.commit(ctx, next)
	return nil
}

// RecordReceipt increments a product's quantity. The receipt's location
// is applied only when the product has none yet; an already-assigned
// location is never overwritten.
func (l *Ledger) RecordReceipt(ctx context.Context, receipt domain.ProductReceipt) error {
	if strings.TrimSpace(receipt.ID) == "" {
		return fmt.Errorf("%w: receipt id required", ErrInvalidRecord)
	}
	if receipt.Quantity < 0 {
		return fmt.Errorf("%w: receipt quantity must not be negative", ErrInvalidRecord)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := productIndex(l.state.Products, receipt.ProductID)
	if idx == -1 {
		return fmt.Errorf("%w: product %s", ErrNotFound, receipt.ProductID)
	}

	next := l.state.Clone()
	product := &next.Products[idx]
	product.Quantity += receipt.Quantity
	if product.LocationID == "" && receipt.ToLocationID != "" {
		product.LocationID = receipt.ToLocationID
	}

	next.ProductReceipts = append(next.ProductReceipts, receipt)
	l.commit(ctx, next)
	return nil
}
