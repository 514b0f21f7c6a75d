package services

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"camper-agent-service/internal/logger"
	"camper-agent-service/internal/models"
)

type LocationGeocoder interface {
	Geocode(ctx context.Context, location string) (models.Coordinates, bool, error)
}

type NearbyPlaces interface {
	Nearby(ctx context.Context, at models.Coordinates, limit int) ([]models.Place, error)
}

// GeoPlaceProvider geocodes a location and lists the places around it. The
// whole chain runs under one timeout and one circuit breaker.
type GeoPlaceProvider struct {
	Geocoder LocationGeocoder
	Places   NearbyPlaces
	Breaker  *gobreaker.CircuitBreaker
	Timeout  time.Duration
	Logger   *zap.Logger
}

func NewProviderBreaker(log *zap.Logger) *gobreaker.CircuitBreaker {
	log = logger.OrNop(log)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "place-provider",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
}

func (p *GeoPlaceProvider) Lookup(ctx context.Context, location string, limit int) ([]models.Place, error) {
	if p.Geocoder == nil || p.Places == nil {
		return nil, errors.New("place provider is not configured")
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	run := func() (interface{}, error) {
		coords, found, err := p.Geocoder.Geocode(ctx, location)
		if err != nil {
			return nil, err
		}
		if !found {
			logger.OrNop(p.Logger).Info("location not resolved", zap.String("location", location))
			return []models.Place{}, nil
		}
		return p.Places.Nearby(ctx, coords, limit)
	}

	if p.Breaker == nil {
		v, err := run()
		return asPlaces(v), err
	}
	v, err := p.Breaker.Execute(run)
	return asPlaces(v), err
}

func asPlaces(v interface{}) []models.Place {
	places, _ := v.([]models.Place)
	return places
}
