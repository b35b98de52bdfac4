package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bizledger/internal/domain"
)

// ProfileUseCase provisions employee profiles as an explicit step of user onboarding.
type ProfileUseCase struct {
	rt          Runtime
	profileRepo ProfileRepository
}

// NewProfileUseCase creates a new ProfileUseCase.
func NewProfileUseCase(rt Runtime, profileRepo ProfileRepository) *ProfileUseCase {
	return &ProfileUseCase{
		rt:          rt,
		profileRepo: profileRepo,
	}
}

// ProvisionInput represents input for creating or updating an employee profile.
type ProvisionInput struct {
	UserID      string
	DisplayName string
	HourlyRate  decimal.Decimal
}

// Provision creates the profile for a user, or updates its name and rate when it exists.
func (uc *ProfileUseCase) Provision(ctx context.Context, input ProvisionInput, actor domain.Actor) (profile *domain.EmployeeProfile, err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opProvision, actor, start, err) }()

	if err := domain.Authorize(actor, domain.PermManageProfiles); err != nil {
		return nil, err
	}

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, domain.NewValidationError("user_id", "is required")
	}
	name := strings.TrimSpace(input.DisplayName)
	if err := domain.ValidateLength("display_name", name, domain.MaxNameLength); err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount("hourly_rate", input.HourlyRate); err != nil {
		return nil, err
	}

	profile = &domain.EmployeeProfile{
		UserID:      userID,
		DisplayName: name,
		HourlyRate:  input.HourlyRate,
		CreatedBy:   actor.ID,
		UpdatedAt:   time.Now().UTC(),
	}

	err = uc.rt.atomically(ctx, func(ctx context.Context, tx Transaction) error {
		return uc.profileRepo.Upsert(ctx, tx, profile)
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// Get returns a user's profile.
func (uc *ProfileUseCase) Get(ctx context.Context, userID string, actor domain.Actor) (*domain.EmployeeProfile, error) {
	if actor.ID == "" || actor.ID != userID {
		if err := domain.Authorize(actor, domain.PermManageProfiles); err != nil {
			return nil, err
		}
	}
	return uc.profileRepo.Get(ctx, userID)
}
