package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketplace-be/internal/db"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/product"

	"go.uber.org/zap"
)

type Repository interface {
	GetByOrderID(ctx context.Context, orderID int64) (*Item, error)
	RecordAttempt(ctx context.Context, orderID int64, account string, passed bool) (*AttemptResult, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Insert creates the payment row of a new order inside the checkout transaction.
func Insert(ctx context.Context, tx *sql.Tx, item *Item) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO payment_items (order_id, payment_category, total_price)
		VALUES ($1, $2, $3)
		RETURNING id
	`, item.OrderID, item.Category, item.TotalPrice).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert payment item: %w", err)
	}
	return nil
}

func (r *repository) GetByOrderID(ctx context.Context, orderID int64) (*Item, error) {
	var (
		p       Item
		account sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, payment_category, total_price, from_account, is_passed
		FROM payment_items
		WHERE order_id = $1
	`, orderID).Scan(&p.ID, &p.OrderID, &p.Category, &p.TotalPrice, &account, &p.IsPassed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to get payment",
			zap.String("layer", "repository"),
			zap.String("method", "GetByOrderID"),
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		return nil, err
	}

	if account.Valid {
		p.FromAccount = &account.String
	}
	return &p, nil
}

// RecordAttempt stores a payment attempt. A passing attempt also marks the
// order paid and takes every line out of stock, all in one transaction. If a
// line no longer has enough stock the transaction is rolled back and the
// attempt is stored again as failed. Attempts on an already passed payment
// change nothing.
func (r *repository) RecordAttempt(ctx context.Context, orderID int64, account string, passed bool) (*AttemptResult, error) {
	res, err := r.recordAttempt(ctx, orderID, account, passed)
	if passed && errors.Is(err, product.ErrInsufficientStock) {
		logger.FromCtx(ctx).Warn("stock ran out before payment, recording as failed",
			zap.String("layer", "repository"),
			zap.String("method", "RecordAttempt"),
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		res, err = r.recordAttempt(ctx, orderID, account, false)
		if res != nil {
			res.StockShortage = true
		}
	}
	return res, err
}

type orderLine struct {
	listingID int64
	quantity  int
}

func (r *repository) recordAttempt(ctx context.Context, orderID int64, account string, passed bool) (*AttemptResult, error) {
	res := &AttemptResult{OrderID: orderID}

	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var alreadyPassed bool
		err := tx.QueryRowContext(ctx, `
			SELECT id, is_passed
			FROM payment_items
			WHERE order_id = $1
			FOR UPDATE
		`, orderID).Scan(&res.PaymentID, &alreadyPassed)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return err
		}

		if alreadyPassed {
			res.Passed = true
			res.AlreadyPassed = true
			return nil
		}

		if passed {
			lines, err := loadLines(ctx, tx, orderID)
			if err != nil {
				return err
			}
			for _, line := range lines {
				if err := product.DecrementStock(ctx, tx, line.listingID, line.quantity); err != nil {
					return err
				}
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE payment_items
			SET from_account = $2, is_passed = $3
			WHERE id = $1 AND is_passed = false
		`, res.PaymentID, account, passed); err != nil {
			return fmt.Errorf("update payment item: %w", err)
		}

		status := "np"
		if passed {
			status = "p"
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET status = $2, updated_at = NOW()
			WHERE id = $1
		`, orderID, status); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		res.Passed = passed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// loadLines reads the order lines in listing id order so concurrent payments
// lock listing rows in the same sequence.
func loadLines(ctx context.Context, tx *sql.Tx, orderID int64) ([]orderLine, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT listing_id, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY listing_id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	var lines []orderLine
	for rows.Next() {
		var l orderLine
		if err := rows.Scan(&l.listingID, &l.quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
