package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"toko/inventory-api/internal/model"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be greater than 0", ErrInvalidInput)
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Ledger is the storage surface the service needs. Implemented by
// repository.InventoryRepository; tests substitute an in-memory fake.
type Ledger interface {
	// RunAtomic executes fn within a single transaction
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error

	// GetItemForUpdate locks the item row by name; (nil, nil) when absent
	GetItemForUpdate(ctx context.Context, name string) (*model.Item, error)

	// GetItem looks up an item by id; (nil, nil) when absent
	GetItem(ctx context.Context, itemID int64) (*model.Item, error)

	// DecrementStock conditionally decrements stock; false when stock < quantity
	DecrementStock(ctx context.Context, itemID int64, quantity int) (bool, error)

	// AdjustStock applies a signed delta; ok is false when the row is missing
	// or the result would be negative
	AdjustStock(ctx context.Context, itemID int64, delta int) (newStock int, ok bool, err error)

	// InsertPurchase persists a new purchase row
	InsertPurchase(ctx context.Context, p model.Purchase) error

	ListItems(ctx context.Context) ([]model.Item, error)
	PurchasesByBuyer(ctx context.Context, buyerName string) ([]model.Purchase, error)
}

type InventoryService struct {
	ledger Ledger
}

func NewInventoryService(ledger Ledger) *InventoryService {
	return &InventoryService{ledger: ledger}
}

// Purchase validates stock for the named item, charges quantity * unit price
// and records the sale. The stock check, the decrement and the purchase insert
// happen inside one transaction: either both the purchase row and the stock
// change become durable, or neither does. The decrement re-checks stock at
// write time, so a concurrent sale that consumed the remaining stock after our
// locked read cannot drive stock negative.
func (s *InventoryService) Purchase(ctx context.Context, buyerName, itemName string, quantity int) (*model.PurchaseReceipt, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if strings.TrimSpace(buyerName) == "" {
		return nil, fmt.Errorf("%w: buyer name must not be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(itemName) == "" {
		return nil, fmt.Errorf("%w: item name must not be empty", ErrInvalidInput)
	}

	var receipt *model.PurchaseReceipt

	err := s.ledger.RunAtomic(ctx, func(ctx context.Context) error {
		// 1. Lock the item row and read current price and stock
		item, err := s.ledger.GetItemForUpdate(ctx, itemName)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrItemNotFound
		}

		// 2. Check stock
		if item.Stock < quantity {
			return ErrInsufficientStock
		}

		// 3. Compute the charge in decimal, never through a float
		totalPaid := item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))

		// 4. Conditional decrement; loses the race -> same outcome as step 2
		applied, err := s.ledger.DecrementStock(ctx, item.ID, quantity)
		if err != nil {
			return err
		}
		if !applied {
			return ErrInsufficientStock
		}

		// 5. Record the purchase
		purchase := model.Purchase{
			ID:        uuid.NewString(),
			BuyerName: buyerName,
			ItemName:  item.Name,
			ItemID:    item.ID,
			Quantity:  quantity,
			TotalPaid: totalPaid,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.ledger.InsertPurchase(ctx, purchase); err != nil {
			return err
		}

		receipt = &model.PurchaseReceipt{
			PurchaseID: purchase.ID,
			ItemID:     item.ID,
			TotalPaid:  totalPaid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

// AdjustStock applies a manual stock correction outside the purchase flow.
// Negative deltas share the purchase path's discipline: the conditional write
// refuses to take stock below zero. Positive deltas restock.
func (s *InventoryService) AdjustStock(ctx context.Context, itemID int64, delta int) (int, error) {
	newStock, ok, err := s.ledger.AdjustStock(ctx, itemID, delta)
	if err != nil {
		return 0, err
	}
	if ok {
		return newStock, nil
	}

	// The conditional write rejected: missing item or underflow.
	item, err := s.ledger.GetItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return 0, ErrItemNotFound
	}
	return 0, ErrInsufficientStock
}

// ListItems returns the current catalog snapshot.
func (s *InventoryService) ListItems(ctx context.Context) ([]model.Item, error) {
	return s.ledger.ListItems(ctx)
}

// PurchaseHistory returns a buyer's purchases, newest first. No matching
// purchases is a valid result, not an error. An empty buyer name returns
// the full history.
func (s *InventoryService) PurchaseHistory(ctx context.Context, buyerName string) ([]model.Purchase, error) {
	return s.ledger.PurchasesByBuyer(ctx, buyerName)
}
