package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bizledger/internal/domain"
)

// CatalogUseCase manages catalog items and direct stock edits.
type CatalogUseCase struct {
	rt          Runtime
	catalogRepo CatalogRepository
}

// NewCatalogUseCase creates a new CatalogUseCase.
func NewCatalogUseCase(rt Runtime, catalogRepo CatalogRepository) *CatalogUseCase {
	return &CatalogUseCase{
		rt:          rt,
		catalogRepo: catalogRepo,
	}
}

// CreateItemInput represents input for creating a catalog item.
type CreateItemInput struct {
	Name          string
	Description   string
	UnitPrice     decimal.Decimal
	Quantity      int64
	InvoiceNumber string
}

// CreateItem adds a product to the catalog under its normalized name.
func (uc *CatalogUseCase) CreateItem(ctx context.Context, input CreateItemInput, actor domain.Actor) (item *domain.CatalogItem, err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opCreateItem, actor, start, err) }()

	if err := domain.Authorize(actor, domain.PermManageCatalog); err != nil {
		return nil, err
	}

	name := domain.NormalizeProductName(input.Name)
	if err := domain.ValidateProductName(name); err != nil {
		return nil, err
	}
	if err := domain.ValidateUnitPrice("unit_price", input.UnitPrice); err != nil {
		return nil, err
	}
	if err := domain.ValidateQuantity("quantity", input.Quantity); err != nil {
		return nil, err
	}
	invoice := strings.TrimSpace(input.InvoiceNumber)
	if err := domain.ValidateLength("invoice_number", invoice, domain.MaxInvoiceLength); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item = &domain.CatalogItem{
		ID:            uc.rt.IDGen.Generate(),
		Name:          name,
		Description:   input.Description,
		UnitPrice:     input.UnitPrice,
		Quantity:      input.Quantity,
		InvoiceNumber: invoice,
		Active:        true,
		CreatedBy:     actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = uc.rt.atomically(ctx, func(ctx context.Context, tx Transaction) error {
		return uc.catalogRepo.Create(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// AdjustStock overwrites an item's quantity on hand, auditing the prior state.
func (uc *CatalogUseCase) AdjustStock(ctx context.Context, id string, quantity int64, actor domain.Actor) (item *domain.CatalogItem, err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opAdjustStock, actor, start, err) }()

	if err := domain.Authorize(actor, domain.PermManageCatalog); err != nil {
		return nil, err
	}

	if err := domain.ValidateQuantity("quantity", quantity); err != nil {
		return nil, err
	}

	err = uc.rt.atomically(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()

		current, err := uc.catalogRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		snapshot := domain.RenderSnapshot(current)
		before := current.Fields()
		previous := current.Quantity

		updated := *current
		updated.Quantity = quantity
		updated.UpdatedAt = now

		if _, err := uc.rt.recordAudit(ctx, tx, domain.SubjectCatalogItem, id, domain.AuditActionEdit, snapshot,
			domain.DiffFields(before, updated.Fields()), actor, now); err != nil {
			return err
		}

		if err := uc.catalogRepo.SetQuantity(ctx, tx, id, quantity, now); err != nil {
			return err
		}

		if err := uc.rt.emit(ctx, tx, domain.AggregateTypeCatalogItem, id, domain.EventTypeCatalogStockAdjusted, domain.StockAdjustedEvent{
			CatalogItemID: id,
			From:          previous,
			To:            quantity,
		}, now); err != nil {
			return err
		}

		item = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.rt.Metrics != nil {
		uc.rt.Metrics.AuditEntriesCreated.WithLabelValues(string(domain.SubjectCatalogItem), string(domain.AuditActionEdit)).Inc()
	}

	return item, nil
}

// DeleteItem removes a catalog item that no line item references, auditing its last state.
func (uc *CatalogUseCase) DeleteItem(ctx context.Context, id string, actor domain.Actor) (err error) {
	start := time.Now()
	defer func() { err = uc.rt.finish(opDeleteItem, actor, start, err) }()

	if err := domain.Authorize(actor, domain.PermManageCatalog); err != nil {
		return err
	}

	return uc.rt.atomically(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()

		current, err := uc.catalogRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		referenced, err := uc.catalogRepo.IsReferenced(ctx, tx, id)
		if err != nil {
			return err
		}
		if referenced {
			return domain.ErrCatalogItemInUse
		}

		if _, err := uc.rt.recordAudit(ctx, tx, domain.SubjectCatalogItem, id, domain.AuditActionDelete,
			domain.RenderSnapshot(current), nil, actor, now); err != nil {
			return err
		}

		return uc.catalogRepo.Delete(ctx, tx, id)
	})
}

// GetItem returns a catalog item by ID.
func (uc *CatalogUseCase) GetItem(ctx context.Context, id string, actor domain.Actor) (*domain.CatalogItem, error) {
	if err := domain.Authorize(actor, domain.PermManageCatalog); err != nil {
		return nil, err
	}
	return uc.catalogRepo.GetByID(ctx, id)
}

// ListItems lists catalog items by name.
func (uc *CatalogUseCase) ListItems(ctx context.Context, limit, offset int, actor domain.Actor) ([]*domain.CatalogItem, error) {
	if err := domain.Authorize(actor, domain.PermManageCatalog); err != nil {
		return nil, err
	}
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.catalogRepo.List(ctx, limit, offset)
}
