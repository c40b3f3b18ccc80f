package user

import (
	"context"
	"database/sql"
	"errors"

	"marketplace-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetProfile fetches a buyer profile joined with the account email.
func (r *repository) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetProfile"),
		zap.Int64("user_id", userID),
	)

	query := `
		SELECT u.id, p.full_name, p.phone, u.email, p.updated_at
		FROM users u
		INNER JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1
	`

	var p Profile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.FullName, &p.Phone, &p.Email, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("profile not found")
			return nil, ErrProfileNotFound
		}
		log.Error("failed to scan profile", zap.Error(err))
		return nil, err
	}

	return &p, nil
}
