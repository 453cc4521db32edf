package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus tracks the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusSkipped   OrderStatus = "skipped"
)

// OrderRequest is a sized order handed to the broker. Exactly one of Qty or
// Notional is set: stocks are submitted by notional, crypto by quantity.
type OrderRequest struct {
	Symbol         string
	Class          AssetClass
	Side           OrderSide
	Qty            float64
	Notional       float64
	IdempotencyKey string
}

// OrderResult wraps the broker response after order submission.
type OrderResult struct {
	Success     bool
	OrderID     string
	Status      OrderStatus
	FilledQty   float64
	FilledPrice float64
	Message     string
}

// IdempotencyKey derives the deterministic client order ID for one decision.
// Two submissions from the same decision cycle produce the same key, so a
// retry after a transient failure cannot double-execute at the broker.
func IdempotencyKey(symbol string, side OrderSide, cycleAt time.Time) string {
	sym := strings.ReplaceAll(symbol, "/", "-")
	return fmt.Sprintf("lb-%s-%s-%d", sym, side, cycleAt.Unix())
}
