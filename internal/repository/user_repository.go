package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/membership-pricing/internal/model"
)

// UserRepository reads user occupancy markers.
type UserRepository struct {
	pool PoolInterface
}

// NewUserRepository creates a new UserRepository with the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// NewUserRepositoryWithPool creates a new UserRepository with a custom pool interface.
// This is primarily used for testing.
func NewUserRepositoryWithPool(pool PoolInterface) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID returns the user's profile, or nil, nil if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	query := `SELECT id, current_seat, current_hostel_room FROM users WHERE id = $1`

	var u model.UserProfile
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.CurrentSeat, &u.CurrentHostelRoom)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}
