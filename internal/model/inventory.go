package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int             `json:"stock"`
}

type Purchase struct {
	ID        string          `json:"id"`
	BuyerName string          `json:"buyer_name"`
	ItemName  string          `json:"item_name"`
	ItemID    int64           `json:"item_id"`
	Quantity  int             `json:"quantity"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	CreatedAt time.Time       `json:"created_at"`
}

// PurchaseReceipt is what a successful purchase returns to the caller.
type PurchaseReceipt struct {
	PurchaseID string          `json:"purchase_id"`
	ItemID     int64           `json:"item_id"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
}
