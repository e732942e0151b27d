package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-service/internal/domain"
)

const (
	orderColumns = `o.id, o.order_number, o.user_id, o.status, o.subtotal, o.discount_amount, o.total,
		o.shipping_address, o.payment_method, o.created_at`

	orderItemsAgg = `COALESCE(json_agg(json_build_object('id', oi.id, 'order_id', oi.order_id,
			'product_id', oi.product_id, 'product_name', oi.product_name, 'product_price', oi.product_price,
			'quantity', oi.quantity, 'subtotal', oi.subtotal) ORDER BY oi.id) FILTER (WHERE oi.id IS NOT NULL), '[]')`

	listOrdersWithItemsQuery = `
		SELECT ` + orderColumns + `, ` + orderItemsAgg + `
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		GROUP BY o.id
		ORDER BY o.created_at DESC;
	`
	getOrderByIDQuery = `
		SELECT ` + orderColumns + `, ` + orderItemsAgg + `
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE o.id = $1
		GROUP BY o.id;
	`
	listRecentOrdersQuery = `
		SELECT ` + orderColumns + `, ` + orderItemsAgg + `
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		GROUP BY o.id
		ORDER BY o.created_at DESC
		LIMIT $1;
	`
	// Only moves the order if it still holds the status the caller read.
	updateOrderStatusQuery = `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3;`

	insertOrderQuery = `
		INSERT INTO orders (order_number, user_id, subtotal, discount_amount, total, shipping_address, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at;
	`
	insertOrderItemQuery = `
		INSERT INTO order_items (order_id, product_id, product_name, product_price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`
	decrementStockQuery = `UPDATE products SET stock_quantity = GREATEST(stock_quantity - $1, 0) WHERE id = $2;`
	// Usage only grows while the limit allows it; zero rows means another order consumed the last use.
	incrementDiscountUsageQuery = `
		UPDATE discount_codes SET usage_count = usage_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR usage_limit <= 0 OR usage_count < usage_limit);
	`
)

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	var itemsJSON []byte
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.Subtotal, &o.DiscountAmount, &o.Total,
		&o.ShippingAddress, &o.PaymentMethod, &o.CreatedAt, &itemsJSON,
	)
	if err != nil {
		return o, err
	}
	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return o, fmt.Errorf("decode order items: %w", err)
		}
	}
	return o, nil
}

func (s *PostgresStore) queryOrders(ctx context.Context, op, query string, args ...any) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: %s failed to query orders: %w", op, err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("store: %s failed to scan order row: %w", op, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: %s iteration error: %w", op, err)
	}
	return orders, nil
}

// --- OrderStorer Implementation ---

func (s *PostgresStore) ListOrdersWithItems(ctx context.Context) ([]domain.Order, error) {
	return s.queryOrders(ctx, "ListOrdersWithItems", listOrdersWithItemsQuery)
}

func (s *PostgresStore) ListRecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.queryOrders(ctx, "ListRecentOrders", listRecentOrdersQuery, limit)
}

func (s *PostgresStore) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, getOrderByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: GetOrderByID failed to scan row: %w", err)
	}
	return &o, nil
}

// UpdateOrderStatus moves order id from status from to status to. It returns
// ErrOrderStatusChanged when the order no longer holds from, or no longer exists.
func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	result, err := s.db.ExecContext(ctx, updateOrderStatusQuery, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("store: UpdateOrderStatus failed to execute update: %w", err)
	}
	return affectedOrErr(result, ErrOrderStatusChanged, "UpdateOrderStatus")
}

// PlaceOrder writes the order row, its items, the stock decrements and the discount usage
// increment atomically. Any failure rolls the whole placement back.
func (s *PostgresStore) PlaceOrder(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	order := domain.Order{
		OrderNumber:     draft.OrderNumber,
		UserID:          draft.UserID,
		Subtotal:        draft.Subtotal,
		DiscountAmount:  draft.DiscountAmount,
		Total:           draft.Total,
		ShippingAddress: draft.ShippingAddress,
		PaymentMethod:   draft.PaymentMethod,
		Items:           make([]domain.OrderItem, 0, len(draft.Items)),
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, insertOrderQuery,
			draft.OrderNumber, draft.UserID, draft.Subtotal, draft.DiscountAmount, draft.Total,
			draft.ShippingAddress, draft.PaymentMethod,
		).Scan(&order.ID, &order.Status, &order.CreatedAt)
		if err != nil {
			if isUniqueViolation(err, "orders_order_number_key", "order_number") {
				return ErrOrderNumberExists
			}
			return fmt.Errorf("store: PlaceOrder failed to insert order: %w", err)
		}

		for _, item := range draft.Items {
			item.OrderID = order.ID
			err := tx.QueryRowContext(ctx, insertOrderItemQuery,
				order.ID, item.ProductID, item.ProductName, item.ProductPrice, item.Quantity, item.Subtotal,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("store: PlaceOrder failed to insert item for product %d: %w", item.ProductID, err)
			}
			if _, err := tx.ExecContext(ctx, decrementStockQuery, item.Quantity, item.ProductID); err != nil {
				return fmt.Errorf("store: PlaceOrder failed to decrement stock for product %d: %w", item.ProductID, err)
			}
			order.Items = append(order.Items, item)
		}

		if draft.DiscountID != nil {
			result, err := tx.ExecContext(ctx, incrementDiscountUsageQuery, *draft.DiscountID)
			if err != nil {
				return fmt.Errorf("store: PlaceOrder failed to increment discount usage: %w", err)
			}
			if err := affectedOrErr(result, ErrDiscountExhausted, "PlaceOrder"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
