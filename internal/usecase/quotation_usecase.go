package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bizledger/internal/domain"
)

// QuotationUseCase prices labor and materials estimates. It never touches stock.
type QuotationUseCase struct {
	rt            Runtime
	catalogRepo   CatalogRepository
	quotationRepo QuotationRepository
	profileRepo   ProfileRepository
}

// NewQuotationUseCase creates a new QuotationUseCase.
func NewQuotationUseCase(
	rt Runtime,
	catalogRepo CatalogRepository,
	quotationRepo QuotationRepository,
	profileRepo ProfileRepository,
) *QuotationUseCase {
	return &QuotationUseCase{
		rt:            rt,
		catalogRepo:   catalogRepo,
		quotationRepo: quotationRepo,
		profileRepo:   profileRepo,
	}
}

// QuoteItemInput is one material line of a quotation.
type QuoteItemInput struct {
	CatalogItemID string
	Quantity      int64
}

// QuoteInput represents input for a quotation.
type QuoteInput struct {
	Client      string
	Hours       decimal.Decimal
	Description string
	Items       []QuoteItemInput
}

// Quote snapshots current catalog prices and the actor's hourly rate into a stored quotation.
func (uc *QuotationUseCase) Quote(ctx context.Context, input QuoteInput, actor domain.Actor) (quotation *domain.Quotation, err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opQuote, actor, start, err) }()

	if err := domain.Authorize(actor, domain.PermCreateQuote); err != nil {
		return nil, err
	}

	client := strings.TrimSpace(input.Client)
	if client == "" {
		return nil, domain.NewValidationError("client", "is required")
	}
	if err := domain.ValidateLength("client", client, domain.MaxClientLength); err != nil {
		return nil, err
	}
	if err := domain.ValidateHours(input.Hours); err != nil {
		return nil, err
	}

	rate, err := uc.hourlyRate(ctx, actor)
	if err != nil {
		return nil, err
	}
	if input.Hours.IsPositive() && !rate.IsPositive() {
		return nil, domain.ErrNoHourlyRate
	}

	q := &domain.Quotation{
		ID:          uc.rt.IDGen.Generate(),
		Client:      client,
		Hours:       input.Hours,
		HourlyRate:  rate,
		Description: input.Description,
		CreatedBy:   actor.ID,
		CreatedAt:   time.Now().UTC(),
		Lines:       make([]domain.QuotationLine, 0, len(input.Items)),
	}

	for i, in := range input.Items {
		if in.Quantity <= 0 {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}

		item, err := uc.catalogRepo.GetByID(ctx, in.CatalogItemID)
		if err != nil {
			return nil, err
		}

		q.Lines = append(q.Lines, domain.QuotationLine{
			ID:            uc.rt.IDGen.Generate(),
			QuotationID:   q.ID,
			CatalogItemID: item.ID,
			ItemName:      item.Name,
			Quantity:      in.Quantity,
			UnitPrice:     item.UnitPrice,
		})
	}

	q.Compute()

	err = uc.rt.atomically(ctx, func(ctx context.Context, tx Transaction) error {
		return uc.quotationRepo.Create(ctx, tx, q)
	})
	if err != nil {
		return nil, err
	}

	if uc.rt.Metrics != nil {
		uc.rt.Metrics.QuotationsCreated.Inc()
	}

	return q, nil
}

// GetQuotation returns a stored quotation by ID.
func (uc *QuotationUseCase) GetQuotation(ctx context.Context, id string, actor domain.Actor) (*domain.Quotation, error) {
	if err := domain.Authorize(actor, domain.PermCreateQuote); err != nil {
		return nil, err
	}
	return uc.quotationRepo.GetByID(ctx, id)
}

// hourlyRate prefers the stored profile rate and falls back to the rate carried by the actor.
func (uc *QuotationUseCase) hourlyRate(ctx context.Context, actor domain.Actor) (decimal.Decimal, error) {
	profile, err := uc.profileRepo.Get(ctx, actor.ID)
	switch {
	case err == nil:
		return profile.HourlyRate, nil
	case errors.Is(err, domain.ErrProfileNotFound):
		return actor.HourlyRate, nil
	default:
		return decimal.Zero, err
	}
}
