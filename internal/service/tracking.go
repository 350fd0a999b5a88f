package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"arriendo-cajas-backend/internal/cache"
	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/repository"
)

type trackingService struct {
	rentals repository.RentalRepository
	drivers repository.DriverRepository
	cache   cache.TrackingCache
}

func NewTrackingService(rentals repository.RentalRepository, drivers repository.DriverRepository, trackingCache cache.TrackingCache) TrackingService {
	if trackingCache == nil {
		trackingCache = cache.NoopTrackingCache{}
	}
	return &trackingService{rentals: rentals, drivers: drivers, cache: trackingCache}
}

func tokensMatch(stored, given string) bool {
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func (s *trackingService) Lookup(ctx context.Context, code, token string) (*domain.TrackingView, error) {
	if entry, ok := s.cache.Get(ctx, code); ok {
		if !tokensMatch(entry.Token, token) {
			return nil, domain.ErrNotFound
		}
		view := entry.View
		return &view, nil
	}

	r, err := s.rentals.GetByTrackingCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !tokensMatch(r.TrackingToken, token) {
		return nil, domain.ErrNotFound
	}

	var d *domain.Driver
	if r.DriverID != nil {
		d, err = s.drivers.GetByID(ctx, *r.DriverID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Failed to load driver for tracking view", "driverID", *r.DriverID, "error", err)
			}
			d = nil
		}
	}

	view := domain.NewTrackingView(r, d)
	s.cache.Set(ctx, code, &cache.TrackingEntry{Token: r.TrackingToken, View: *view})
	return view, nil
}
