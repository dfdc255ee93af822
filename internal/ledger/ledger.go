// Package ledger implements the inventory state-transition engine. Every
// operation validates against the current aggregate, builds the next
// snapshot on a deep copy, and swaps it in atomically; a failed validation
// leaves the aggregate exactly as it was.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"gudangku/backend/internal/domain"
	"gudangku/backend/internal/snapshot"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrDuplicateKey          = errors.New("duplicate key")
	ErrNotBulkProduct        = errors.New("not a bulk product")
	ErrBulkProductNotAllowed = errors.New("bulk product not allowed")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidRecord         = errors.New("invalid record")
)

// Ledger owns the canonical AppState snapshot. All callers go through an
// injected *Ledger handle; there is no package-level state.
type Ledger struct {
	mu    sync.RWMutex
	slot  snapshot.Store
	key   string
	state *domain.AppState
}

// Open seeds the aggregate from the persistence slot, or from the empty
// default when the slot has never been written.
func Open(ctx context.Context, slot snapshot.Store, key string) (*Ledger, error) {
	state, err := slot.Load(ctx, key)
	if errors.Is(err, snapshot.ErrNotFound) {
		log.Printf("[ledger] slot %s empty, starting from default state", key)
		state = domain.NewAppState()
	} else if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}

	return &Ledger{slot: slot, key: key, state: state}, nil
}

// Snapshot returns a deep copy of the current aggregate. Callers may read
// and retain it freely; it never aliases live state.
func (l *Ledger) Snapshot() *domain.AppState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Clone()
}

// commit swaps in a fully validated next state and writes it through to
// the slot. Save failures are logged, not returned: the in-memory state is
// authoritative for the session and the next commit retries the write.
func (l *Ledger) commit(ctx context.Context, next *domain.AppState) {
	l.state = next
	if err := l.slot.Save(ctx, l.key, next); err != nil {
		log.Printf("[ledger] WARN: snapshot save failed for slot %s: %v", l.key, err)
	}
}

func insufficientStock(p domain.Product, requested int) error {
	return fmt.Errorf("%w: product %s (%s): available %d, requested %d",
		ErrInsufficientStock, p.Name, p.SKU, p.Quantity, requested)
}

func employeeIndex(employees []domain.Employee, id string) int {
	for i := range employees {
		if employees[i].ID == id {
			return i
		}
	}
	return -1
}

func dealerIndex(dealers []domain.Dealer, id string) int {
	for i := range dealers {
		if dealers[i].ID == id {
			return i
		}
	}
	return -1
}

func vendorIndex(vendors []domain.Vendor, id string) int {
	for i := range vendors {
		if vendors[i].ID == id {
			return i
		}
	}
	return -1
}

func locationIndex(locations []domain.ShelfLocation, id string) int {
	for i := range locations {
		if locations[i].ID == id {
			return i
		}
	}
	return -1
}

func deviceIndex(devices []domain.Device, id string) int {
	for i := range devices {
		if devices[i].ID == id {
			return i
		}
	}
	return -1
}

func productIndex(products []domain.Product, sku string) int {
	for i := range products {
		if products[i].SKU == sku {
			return i
		}
	}
	return -1
}

func saleIndex(sales []domain.SaleTransaction, id string) int {
	for i := range sales {
		if sales[i].ID == id {
			return i
		}
	}
	return -1
}

func deliveryIndex(deliveries []domain.BulkDelivery, id string) int {
	for i := range deliveries {
		if deliveries[i].ID == id {
			return i
		}
	}
	return -1
}
