package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/usecase"
)

// ProfileRepository implements usecase.ProfileRepository.
type ProfileRepository struct {
	db querier
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: pool}
}

// Get retrieves a user's employee profile.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.EmployeeProfile, error) {
	var p domain.EmployeeProfile
	err := r.db.QueryRow(ctx, `
		SELECT user_id, display_name, hourly_rate, created_by, updated_at
		FROM employee_profiles
		WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.DisplayName, &p.HourlyRate, &p.CreatedBy, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert creates the profile or updates its name and rate. The original creator is kept.
func (r *ProfileRepository) Upsert(ctx context.Context, tx usecase.Transaction, p *domain.EmployeeProfile) error {
	_, err := inTx(tx).Exec(ctx, `
		INSERT INTO employee_profiles (user_id, display_name, hourly_rate, created_by, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    hourly_rate = EXCLUDED.hourly_rate,
		    updated_at = EXCLUDED.updated_at`,
		p.UserID, p.DisplayName, p.HourlyRate, p.CreatedBy, p.UpdatedAt,
	)
	return err
}
