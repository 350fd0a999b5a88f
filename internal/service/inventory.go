package service

import (
	"context"
	"strings"
	"time"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/repository"
)

type inventoryService struct {
	inventory repository.InventoryRepository
}

func NewInventoryService(inventory repository.InventoryRepository) InventoryService {
	return &inventoryService{inventory: inventory}
}

func validateItem(item *domain.InventoryItem) error {
	item.Code = strings.ToUpper(strings.TrimSpace(item.Code))
	if item.Code == "" {
		return domain.NewValidationError("code", "is required")
	}
	if !item.Type.IsValid() {
		return domain.NewValidationError("type", "unknown item type")
	}
	if item.Status == "" {
		item.Status = domain.ItemStatusAvailable
	}
	if !item.Status.IsValid() {
		return domain.NewValidationError("status", "unknown item status")
	}
	return nil
}

func (s *inventoryService) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	if err := validateItem(item); err != nil {
		return err
	}
	return s.inventory.Create(ctx, item)
}

func (s *inventoryService) GetItem(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	return s.inventory.GetByID(ctx, id)
}

func (s *inventoryService) UpdateItem(ctx context.Context, item *domain.InventoryItem) error {
	if err := validateItem(item); err != nil {
		return err
	}
	return s.inventory.Update(ctx, item)
}

func (s *inventoryService) SetStatus(ctx context.Context, id int64, status domain.ItemStatus) (*domain.InventoryItem, error) {
	if !status.IsValid() {
		return nil, domain.NewValidationError("status", "unknown item status")
	}
	item, err := s.inventory.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Status = status
	if err := s.inventory.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, id int64) error {
	return s.inventory.Delete(ctx, id)
}

func (s *inventoryService) ListItems(ctx context.Context, itemType domain.ItemType, status domain.ItemStatus) ([]domain.InventoryItem, error) {
	if itemType != "" && !itemType.IsValid() {
		return nil, domain.NewValidationError("type", "unknown item type")
	}
	if status != "" && !status.IsValid() {
		return nil, domain.NewValidationError("status", "unknown item status")
	}
	return s.inventory.List(ctx, itemType, status)
}

// Availability lists items free over the half-open range [from, to)
func (s *inventoryService) Availability(ctx context.Context, itemType domain.ItemType, from, to time.Time) ([]domain.InventoryItem, error) {
	if itemType != "" && !itemType.IsValid() {
		return nil, domain.NewValidationError("type", "unknown item type")
	}
	if from.IsZero() || to.IsZero() {
		return nil, domain.NewValidationError("from", "from and to are required")
	}
	if !to.After(from) {
		return nil, domain.NewValidationError("to", "must be after from")
	}
	return s.inventory.Available(ctx, itemType, from, to)
}
