package service

import (
	"context"
	"strings"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/repository"
)

type driverService struct {
	drivers repository.DriverRepository
}

func NewDriverService(drivers repository.DriverRepository) DriverService {
	return &driverService{drivers: drivers}
}

func (s *driverService) CreateDriver(ctx context.Context, d *domain.Driver) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return domain.NewValidationError("name", "is required")
	}
	return s.drivers.Create(ctx, d)
}

func (s *driverService) GetDriver(ctx context.Context, id int64) (*domain.Driver, error) {
	return s.drivers.GetByID(ctx, id)
}

func (s *driverService) UpdateDriver(ctx context.Context, d *domain.Driver) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return domain.NewValidationError("name", "is required")
	}
	return s.drivers.Update(ctx, d)
}

func (s *driverService) SetActive(ctx context.Context, id int64, active bool) (*domain.Driver, error) {
	d, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.IsActive = active
	if err := s.drivers.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *driverService) DeleteDriver(ctx context.Context, id int64) error {
	return s.drivers.Delete(ctx, id)
}

func (s *driverService) ListDrivers(ctx context.Context, activeOnly bool) ([]domain.Driver, error) {
	return s.drivers.List(ctx, activeOnly)
}
