package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketplace-be/internal/logger"
	"marketplace-be/internal/pricing"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	GetListing(ctx context.Context, id int64) (*Listing, error)
	GetListings(ctx context.Context, ids []int64) (map[int64]*Listing, error)
	ExpireDiscounts(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const listingSelect = `
	SELECT
		l.id, l.count_left, l.count_sold, l.price, l.is_active,
		p.id, p.name, p.is_active,
		s.id, s.name,
		d.id, d.name, d.date_start, d.date_end, d.is_active,
		d.percentage, d.amount, d.min_cost
	FROM listings l
	JOIN products p ON p.id = l.product_id
	JOIN shops s ON s.id = l.shop_id
	LEFT JOIN discounts d ON d.id = l.discount_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*Listing, error) {
	var (
		l            Listing
		discountID   sql.NullInt64
		discountName sql.NullString
		dateStart    sql.NullTime
		dateEnd      sql.NullTime
		active       sql.NullBool
		percentage   sql.NullInt32
		amount       decimal.NullDecimal
		minCost      decimal.NullDecimal
	)

	err := row.Scan(
		&l.ID, &l.CountLeft, &l.CountSold, &l.Price, &l.IsActive,
		&l.Product.ID, &l.Product.Name, &l.Product.IsActive,
		&l.Shop.ID, &l.Shop.Name,
		&discountID, &discountName, &dateStart, &dateEnd, &active,
		&percentage, &amount, &minCost,
	)
	if err != nil {
		return nil, err
	}

	if discountID.Valid {
		d := &pricing.Discount{
			ID:        discountID.Int64,
			ShopID:    l.Shop.ID,
			Name:      discountName.String,
			DateStart: dateStart.Time,
			IsActive:  active.Bool,
		}
		if dateEnd.Valid {
			end := dateEnd.Time
			d.DateEnd = &end
		}
		if percentage.Valid {
			p := percentage.Int32
			d.Percentage = &p
		}
		if amount.Valid {
			a := amount.Decimal
			d.Amount = &a
		}
		if minCost.Valid {
			m := minCost.Decimal
			d.MinCost = &m
		}
		l.Discount = d
	}

	return &l, nil
}

func (r *repository) GetListing(ctx context.Context, id int64) (*Listing, error) {
	row := r.db.QueryRowContext(ctx, listingSelect+` WHERE l.id = $1`, id)

	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to get listing",
			zap.String("layer", "repository"),
			zap.String("method", "GetListing"),
			zap.Int64("listing_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return l, nil
}

// GetListings returns the listings that still exist, keyed by id. Missing ids
// are simply absent from the map.
func (r *repository) GetListings(ctx context.Context, ids []int64) (map[int64]*Listing, error) {
	out := make(map[int64]*Listing, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, listingSelect+` WHERE l.id = ANY($1)`, pq.Array(ids))
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query listings",
			zap.String("layer", "repository"),
			zap.String("method", "GetListings"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out[l.ID] = l
	}

	return out, rows.Err()
}

// ExpireDiscounts deactivates every active discount whose end date has passed.
func (r *repository) ExpireDiscounts(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE discounts
		SET is_active = false
		WHERE is_active = true AND date_end IS NOT NULL AND date_end <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("expire discounts: %w", err)
	}
	return res.RowsAffected()
}

// DecrementStock moves qty units of a listing from count_left to count_sold
// inside tx. It fails with ErrInsufficientStock instead of letting count_left
// go negative.
func DecrementStock(ctx context.Context, tx *sql.Tx, listingID int64, qty int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE listings
		SET count_left = count_left - $2, count_sold = count_sold + $2
		WHERE id = $1 AND count_left >= $2
	`, listingID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock of listing %d: %w", listingID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("listing %d: %w", listingID, ErrInsufficientStock)
	}
	return nil
}
