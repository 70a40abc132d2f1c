package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"toko/inventory-api/internal/model"
)

type InventoryRepository struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// RunAtomic executes fn within a single transaction. The transaction is
// injected into the context so that every repository call made inside fn
// runs against it instead of the pool. Rollback is deferred; it is a no-op
// once Commit succeeds.
func (r *InventoryRepository) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ctx = context.WithValue(ctx, txKey{}, tx)

	if err := fn(ctx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type txKey struct{}

func (r *InventoryRepository) getExecutor(ctx context.Context) PgxExecutor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.db
}

// PgxExecutor is an interface that matches both *pgxpool.Pool and pgx.Tx
type PgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetItemForUpdate locks the item row by name and returns it.
// Returns (nil, nil) when no item has that name.
func (r *InventoryRepository) GetItemForUpdate(ctx context.Context, name string) (*model.Item, error) {
	var item model.Item
	err := r.getExecutor(ctx).QueryRow(ctx,
		"SELECT id, name, unit_price, stock FROM items WHERE name = $1 FOR UPDATE", name,
	).Scan(&item.ID, &item.Name, &item.UnitPrice, &item.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// GetItem returns the item with the given id, or (nil, nil) when absent.
func (r *InventoryRepository) GetItem(ctx context.Context, itemID int64) (*model.Item, error) {
	var item model.Item
	err := r.getExecutor(ctx).QueryRow(ctx,
		"SELECT id, name, unit_price, stock FROM items WHERE id = $1", itemID,
	).Scan(&item.ID, &item.Name, &item.UnitPrice, &item.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// DecrementStock applies a conditional decrement. The predicate guarantees
// stock never goes negative even if the caller's earlier read was stale;
// the boolean reports whether the decrement was applied.
func (r *InventoryRepository) DecrementStock(ctx context.Context, itemID int64, quantity int) (bool, error) {
	tag, err := r.getExecutor(ctx).Exec(ctx,
		"UPDATE items SET stock = stock - $1 WHERE id = $2 AND stock >= $1", quantity, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to update item stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// AdjustStock applies a signed stock delta in a single conditional statement
// and returns the resulting stock. ok is false when the row is missing or the
// delta would drive stock negative; the caller disambiguates.
func (r *InventoryRepository) AdjustStock(ctx context.Context, itemID int64, delta int) (newStock int, ok bool, err error) {
	err = r.getExecutor(ctx).QueryRow(ctx,
		"UPDATE items SET stock = stock + $1 WHERE id = $2 AND stock + $1 >= 0 RETURNING stock",
		delta, itemID,
	).Scan(&newStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to adjust item stock: %w", err)
	}
	return newStock, true, nil
}

// InsertPurchase inserts a new purchase row
func (r *InventoryRepository) InsertPurchase(ctx context.Context, p model.Purchase) error {
	_, err := r.getExecutor(ctx).Exec(ctx,
		`INSERT INTO purchases (id, buyer_name, item_name, item_id, quantity, total_paid, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.BuyerName, p.ItemName, p.ItemID, p.Quantity, p.TotalPaid, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}
	return nil
}

// ListItems returns a full snapshot of the catalog ordered by id.
func (r *InventoryRepository) ListItems(ctx context.Context) ([]model.Item, error) {
	rows, err := r.getExecutor(ctx).Query(ctx,
		"SELECT id, name, unit_price, stock FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.UnitPrice, &item.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return items, nil
}

// PurchasesByBuyer returns the purchase history for one buyer, newest first.
// An empty buyer name returns the full history.
func (r *InventoryRepository) PurchasesByBuyer(ctx context.Context, buyerName string) ([]model.Purchase, error) {
	query := `SELECT id, buyer_name, item_name, item_id, quantity, total_paid, created_at
		FROM purchases`
	args := []any{}
	if buyerName != "" {
		query += " WHERE buyer_name = $1"
		args = append(args, buyerName)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.getExecutor(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases := []model.Purchase{}
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ID, &p.BuyerName, &p.ItemName, &p.ItemID, &p.Quantity, &p.TotalPaid, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read purchases: %w", err)
	}
	return purchases, nil
}
