package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"marketplace-be/internal/logger"
	"marketplace-be/internal/payment"

	"go.uber.org/zap"
)

type Repository interface {
	CreateOrder(ctx context.Context, o *Order, items []OrderItem, p *payment.Item) error
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, buyerID int64, limit, offset int) ([]Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error)
	GetDeliveryCategory(ctx context.Context, id int64) (*DeliveryCategory, error)
	ListActiveDeliveryCategories(ctx context.Context) ([]DeliveryCategory, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// CreateOrder stores the order, its lines and its payment in one
// transaction. IDs and timestamps are written back into o, items and p.
func (r *repository) CreateOrder(ctx context.Context, o *Order, items []OrderItem, p *payment.Item) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrder"),
		zap.Int("item_count", len(items)),
	)

	if len(items) == 0 {
		return errors.New("order has no items")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			} else {
				log.Debug("transaction rolled back")
			}
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			buyer_id, delivery_category_id, name, phone, email,
			city, address, comment, is_free_delivery, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at, updated_at
	`,
		o.BuyerID,
		o.DeliveryCategory.ID,
		o.Name,
		o.Phone,
		o.Email,
		o.City,
		o.Address,
		o.Comment,
		o.IsFreeDelivery,
		o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	log = log.With(zap.Int64("order_id", o.ID))

	// one multi-row insert for all lines
	var (
		sb   strings.Builder
		args = make([]any, 0, len(items)*4)
	)
	sb.WriteString("INSERT INTO order_items (order_id, listing_id, price_on_add_moment, quantity) VALUES ")
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4)
		args = append(args, o.ID, item.ListingID, item.PriceOnAddMoment, item.Quantity)
	}
	sb.WriteString(" RETURNING id")

	rows, err := tx.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		log.Error("failed to insert order items", zap.Error(err))
		return err
	}
	i := 0
	for rows.Next() {
		if i < len(items) {
			if err := rows.Scan(&items[i].ID); err != nil {
				rows.Close()
				return err
			}
			items[i].OrderID = o.ID
		}
		i++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		log.Error("failed to read order item ids", zap.Error(err))
		return err
	}

	p.OrderID = o.ID
	if err := payment.Insert(ctx, tx, p); err != nil {
		log.Error("failed to insert payment item", zap.Error(err))
		return err
	}
	o.Payment = p

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order transaction", zap.Error(err))
		return err
	}

	committed = true
	log.Info("order transaction committed")

	return nil
}

const orderSelect = `
	SELECT
		o.id, o.buyer_id, o.name, o.phone, o.email, o.city, o.address,
		o.comment, o.is_free_delivery, o.status, o.is_canceled,
		o.created_at, o.updated_at,
		dc.id, dc.name, dc.is_active, dc.price, dc.codename,
		pi.id, pi.payment_category, pi.total_price, pi.from_account, pi.is_passed
	FROM orders o
	JOIN delivery_categories dc ON dc.id = o.delivery_category_id
	JOIN payment_items pi ON pi.order_id = o.id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o       Order
		buyerID sql.NullInt64
		comment sql.NullString
		account sql.NullString
		p       payment.Item
	)

	if err := row.Scan(
		&o.ID, &buyerID, &o.Name, &o.Phone, &o.Email, &o.City, &o.Address,
		&comment, &o.IsFreeDelivery, &o.Status, &o.IsCanceled,
		&o.CreatedAt, &o.UpdatedAt,
		&o.DeliveryCategory.ID, &o.DeliveryCategory.Name, &o.DeliveryCategory.IsActive,
		&o.DeliveryCategory.Price, &o.DeliveryCategory.Codename,
		&p.ID, &p.Category, &p.TotalPrice, &account, &p.IsPassed,
	); err != nil {
		return nil, err
	}

	if buyerID.Valid {
		o.BuyerID = &buyerID.Int64
	}
	if comment.Valid {
		o.Comment = &comment.String
	}
	if account.Valid {
		p.FromAccount = &account.String
	}
	p.OrderID = o.ID
	o.Payment = &p

	return &o, nil
}

func (r *repository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to get order",
			zap.String("layer", "repository"),
			zap.String("method", "GetOrder"),
			zap.Int64("order_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return o, nil
}

// ListOrders returns one page of a buyer's orders, most recently updated first.
func (r *repository) ListOrders(ctx context.Context, buyerID int64, limit, offset int) ([]Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListOrders"),
		zap.Int64("buyer_id", buyerID),
		zap.Int("limit", limit),
		zap.Int("offset", offset),
	)

	rows, err := r.db.QueryContext(ctx,
		orderSelect+` WHERE o.buyer_id = $1 ORDER BY o.updated_at DESC, o.id DESC LIMIT $2 OFFSET $3`,
		buyerID, limit, offset,
	)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order", zap.Error(err))
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	log.Debug("orders listed", zap.Int("count", len(orders)))
	return orders, nil
}

func (r *repository) GetOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			oi.id, oi.order_id, oi.listing_id, p.name, l.shop_id,
			l.is_active AND p.is_active,
			oi.price_on_add_moment, oi.quantity
		FROM order_items oi
		JOIN listings l ON l.id = oi.listing_id
		JOIN products p ON p.id = l.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to get order items",
			zap.String("layer", "repository"),
			zap.String("method", "GetOrderItems"),
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ListingID, &it.ProductName, &it.ShopID,
			&it.ListingActive, &it.PriceOnAddMoment, &it.Quantity,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) GetDeliveryCategory(ctx context.Context, id int64) (*DeliveryCategory, error) {
	var dc DeliveryCategory
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, is_active, price, codename
		FROM delivery_categories
		WHERE id = $1
	`, id).Scan(&dc.ID, &dc.Name, &dc.IsActive, &dc.Price, &dc.Codename)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeliveryCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

func (r *repository) ListActiveDeliveryCategories(ctx context.Context) ([]DeliveryCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, is_active, price, codename
		FROM delivery_categories
		WHERE is_active = true
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeliveryCategory
	for rows.Next() {
		var dc DeliveryCategory
		if err := rows.Scan(&dc.ID, &dc.Name, &dc.IsActive, &dc.Price, &dc.Codename); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}
