// Package inventory adjusts product stock when an order enters or leaves the Cancelled state.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront-service/internal/catalog"
	"storefront-service/internal/domain"
)

var ErrInvalidStatus = errors.New("inventory: unknown order status")

// Store is the part of the gateway the reconciler writes through.
type Store interface {
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error
	AdjustStock(ctx context.Context, productID int64, delta int32) (int32, error)
}

// Catalog is the synchronizer surface the reconciler needs.
type Catalog interface {
	SetOrderStatus(orderID int64, status domain.OrderStatus) bool
	Refresh(ctx context.Context, reason string) (*catalog.Snapshot, error)
}

// Adjustment is one stock write that succeeded.
type Adjustment struct {
	ProductID int64 `json:"product_id"`
	Delta     int32 `json:"delta"`
	Stock     int32 `json:"stock"`
}

// ItemFailure is one stock write that failed. Remaining items were still processed.
type ItemFailure struct {
	ProductID int64  `json:"product_id"`
	Error     string `json:"error"`
}

// Result describes a completed status change.
type Result struct {
	OrderID     int64              `json:"order_id"`
	From        domain.OrderStatus `json:"from"`
	To          domain.OrderStatus `json:"to"`
	Adjustments []Adjustment       `json:"adjustments"`
	Failures    []ItemFailure      `json:"failures,omitempty"`
	Refreshed   bool               `json:"refreshed"`
}

type Reconciler struct {
	store   Store
	catalog Catalog
	logger  *zap.Logger
}

func NewReconciler(s Store, c Catalog, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: s, catalog: c, logger: logger}
}

// StockDelta returns the per-unit stock direction of a transition: +1 into Cancelled,
// -1 out of Cancelled, 0 otherwise.
func StockDelta(from, to domain.OrderStatus) int32 {
	switch {
	case from != domain.OrderStatusCancelled && to == domain.OrderStatusCancelled:
		return 1
	case from == domain.OrderStatusCancelled && to != domain.OrderStatusCancelled:
		return -1
	default:
		return 0
	}
}

// UpdateOrderStatus moves order orderID to status. The current status is read from the store
// and the status write only lands if the order still holds it, so a transition applies its
// stock side effect at most once. Stock writes run after the status write, one per line item;
// a failed item is reported and the remaining items continue. When the status write fails
// nothing is adjusted and local state is left alone.
func (r *Reconciler) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*Result, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	order, err := r.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := r.store.UpdateOrderStatus(ctx, orderID, order.Status, status); err != nil {
		r.logger.Warn("order status write rejected",
			zap.Int64("order_id", orderID), zap.String("from", string(order.Status)),
			zap.String("to", string(status)), zap.Error(err))
		return nil, err
	}

	res := &Result{OrderID: orderID, From: order.Status, To: status, Adjustments: []Adjustment{}}
	direction := StockDelta(order.Status, status)
	if direction != 0 {
		for _, item := range order.Items {
			delta := direction * item.Quantity
			stock, err := r.store.AdjustStock(ctx, item.ProductID, delta)
			if err != nil {
				r.logger.Error("stock adjustment failed",
					zap.Int64("order_id", orderID), zap.Int64("product_id", item.ProductID),
					zap.Int32("delta", delta), zap.Error(err))
				res.Failures = append(res.Failures, ItemFailure{ProductID: item.ProductID, Error: err.Error()})
				continue
			}
			res.Adjustments = append(res.Adjustments, Adjustment{ProductID: item.ProductID, Delta: delta, Stock: stock})
		}
	}

	r.catalog.SetOrderStatus(orderID, status)
	r.logger.Info("order status updated",
		zap.Int64("order_id", orderID), zap.String("from", string(order.Status)), zap.String("to", string(status)),
		zap.Int("adjusted_items", len(res.Adjustments)), zap.Int("failed_items", len(res.Failures)))

	if direction != 0 {
		_, err := r.catalog.Refresh(ctx, "order-status")
		switch {
		case err == nil:
			res.Refreshed = true
		case errors.Is(err, catalog.ErrRefreshInProgress):
			r.logger.Debug("catalog refresh already running after status change", zap.Int64("order_id", orderID))
		default:
			res.Refreshed = true
			r.logger.Warn("catalog refresh after status change incomplete", zap.Error(err))
		}
	}
	return res, nil
}
